package handlers_test

import (
	"testing"

	"github.com/ledata-dev/ledata/internal/models"
	"github.com/stretchr/testify/require"
)

func TestCreateProjectValidation(t *testing.T) {
	r, database := newTestServer(t)
	token := signupAndVerify(t, r, database, "alice", "alice@example.com", "pw")

	w := doRequest(t, r, "POST", "/api/projects", map[string]interface{}{"name": "   "}, token)
	require.Equal(t, 400, w.Code)

	w = doRequest(t, r, "POST", "/api/projects", map[string]interface{}{"description": "no name"}, token)
	require.Equal(t, 400, w.Code)

	w = doRequest(t, r, "POST", "/api/projects", map[string]interface{}{"name": "Trip"}, "")
	require.Equal(t, 401, w.Code)
}

func TestProjectLifecycle(t *testing.T) {
	r, database := newTestServer(t)
	token := signupAndVerify(t, r, database, "alice", "alice@example.com", "pw")
	datasetID := createDataset(t, database, "RT-1", nil)

	w := doRequest(t, r, "POST", "/api/projects", map[string]interface{}{
		"name":        "  Trip  ",
		"description": "field robots",
	}, token)
	require.Equal(t, 200, w.Code, w.Body.String())

	project := decodeJSON(t, w)["project"].(map[string]interface{})
	projectID := project["id"].(string)
	require.Len(t, projectID, 8)
	require.Equal(t, "Trip", project["name"])

	// adding the same dataset twice keeps a single reference
	for i := 0; i < 2; i++ {
		w = doRequest(t, r, "POST", "/api/projects/"+projectID+"/add-dataset", map[string]interface{}{
			"dataset_id": datasetID,
		}, token)
		require.Equal(t, 200, w.Code, w.Body.String())
	}

	var user models.User
	require.NoError(t, database.Where("username = ?", "alice").First(&user).Error)
	require.Len(t, user.Projects, 1)
	require.Equal(t, []string{datasetID}, user.Projects[0].DatasetIDs)

	w = doRequest(t, r, "GET", "/api/projects", nil, token)
	require.Equal(t, 200, w.Code)
	projects := decodeJSON(t, w)["projects"].([]interface{})
	require.Len(t, projects, 1)
	listed := projects[0].(map[string]interface{})
	resolved := listed["datasets"].([]interface{})
	require.Len(t, resolved, 1)
	require.Equal(t, "RT-1", resolved[0].(map[string]interface{})["dataset_name"])

	w = doRequest(t, r, "DELETE", "/api/projects/"+projectID, nil, token)
	require.Equal(t, 200, w.Code)
	require.Equal(t, true, decodeJSON(t, w)["deleted"])

	require.NoError(t, database.Where("username = ?", "alice").First(&user).Error)
	require.Empty(t, user.Projects)

	// the dataset itself is untouched
	var count int64
	require.NoError(t, database.Model(&models.Dataset{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestDeleteProjectNotFound(t *testing.T) {
	r, database := newTestServer(t)
	token := signupAndVerify(t, r, database, "alice", "alice@example.com", "pw")

	w := doRequest(t, r, "DELETE", "/api/projects/ghost123", nil, token)
	require.Equal(t, 404, w.Code)
}

func TestDeleteProjectByQueryVariant(t *testing.T) {
	r, database := newTestServer(t)
	token := signupAndVerify(t, r, database, "alice", "alice@example.com", "pw")

	w := doRequest(t, r, "POST", "/api/projects", map[string]interface{}{"name": "Trip"}, token)
	projectID := decodeJSON(t, w)["project"].(map[string]interface{})["id"].(string)

	w = doRequest(t, r, "DELETE", "/api/projects", nil, token)
	require.Equal(t, 400, w.Code)

	w = doRequest(t, r, "DELETE", "/api/projects?project_id="+projectID, nil, token)
	require.Equal(t, 200, w.Code)

	// body variant
	w = doRequest(t, r, "POST", "/api/projects", map[string]interface{}{"name": "Trip 2"}, token)
	projectID = decodeJSON(t, w)["project"].(map[string]interface{})["id"].(string)

	w = doRequest(t, r, "DELETE", "/api/projects", map[string]interface{}{"project_id": projectID}, token)
	require.Equal(t, 200, w.Code)

	var user models.User
	require.NoError(t, database.Where("username = ?", "alice").First(&user).Error)
	require.Empty(t, user.Projects)
}

func TestProjectIDsAreLocallyScoped(t *testing.T) {
	r, database := newTestServer(t)
	tokenA := signupAndVerify(t, r, database, "alice", "alice@example.com", "pw")
	signupAndVerify(t, r, database, "bob", "bob@example.com", "pw")

	// both users hold a project with a colliding id
	for _, username := range []string{"alice", "bob"} {
		var user models.User
		require.NoError(t, database.Where("username = ?", username).First(&user).Error)
		user.Projects = []models.Project{{ID: "same1234", Name: "Shared", DatasetIDs: []string{}}}
		require.NoError(t, database.Save(&user).Error)
	}

	w := doRequest(t, r, "DELETE", "/api/projects/same1234", nil, tokenA)
	require.Equal(t, 200, w.Code)

	var alice, bob models.User
	require.NoError(t, database.Where("username = ?", "alice").First(&alice).Error)
	require.NoError(t, database.Where("username = ?", "bob").First(&bob).Error)
	require.Empty(t, alice.Projects)
	require.Len(t, bob.Projects, 1)
}

func TestAddDatasetToProjectErrors(t *testing.T) {
	r, database := newTestServer(t)
	token := signupAndVerify(t, r, database, "alice", "alice@example.com", "pw")

	w := doRequest(t, r, "POST", "/api/projects", map[string]interface{}{"name": "Trip"}, token)
	projectID := decodeJSON(t, w)["project"].(map[string]interface{})["id"].(string)

	w = doRequest(t, r, "POST", "/api/projects/"+projectID+"/add-dataset", map[string]interface{}{}, token)
	require.Equal(t, 400, w.Code)

	w = doRequest(t, r, "POST", "/api/projects/"+projectID+"/add-dataset", map[string]interface{}{
		"dataset_id": "ghost",
	}, token)
	require.Equal(t, 404, w.Code)

	datasetID := createDataset(t, database, "RT-1", nil)

	w = doRequest(t, r, "POST", "/api/projects/ghost123/add-dataset", map[string]interface{}{
		"dataset_id": datasetID,
	}, token)
	require.Equal(t, 404, w.Code)
}
