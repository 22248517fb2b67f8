package handlers_test

import (
	"testing"

	"github.com/ledata-dev/ledata/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestCreateDatasetRecordsSubmission(t *testing.T) {
	r, database := newTestServer(t)
	token := signupAndVerify(t, r, database, "alice", "alice@example.com", "pw")

	w := doRequest(t, r, "POST", "/api/datasets", map[string]interface{}{
		"dataset_name": "RT-1",
		"country":      "USA",
		"episodes":     float64(130000),
	}, token)
	require.Equal(t, 201, w.Code, w.Body.String())

	resp := decodeJSON(t, w)
	datasetID := resp["id"].(string)
	require.Equal(t, "RT-1", resp["dataset_name"])
	require.Equal(t, "USA", resp["country"])

	var user models.User
	require.NoError(t, database.Where("username = ?", "alice").First(&user).Error)
	require.Equal(t, []string{datasetID}, user.Submitted)

	w = doRequest(t, r, "GET", "/api/datasets/submitted", nil, token)
	require.Equal(t, 200, w.Code)
	listed := decodeJSONList(t, w)
	require.Len(t, listed, 1)
	require.Equal(t, datasetID, listed[0]["id"])
}

func TestCreateDatasetValidation(t *testing.T) {
	r, database := newTestServer(t)
	token := signupAndVerify(t, r, database, "alice", "alice@example.com", "pw")

	w := doRequest(t, r, "POST", "/api/datasets", map[string]interface{}{"country": "USA"}, token)
	require.Equal(t, 400, w.Code)

	w = doRequest(t, r, "POST", "/api/datasets", map[string]interface{}{
		"dataset_name": "   ",
	}, token)
	require.Equal(t, 400, w.Code)

	w = doRequest(t, r, "POST", "/api/datasets", map[string]interface{}{
		"dataset_name": "RT-1",
		"open_source":  true,
	}, token)
	require.Equal(t, 400, w.Code)

	w = doRequest(t, r, "POST", "/api/datasets", map[string]interface{}{"dataset_name": "RT-1"}, "")
	require.Equal(t, 401, w.Code)
}

func TestGetAndUpdateDataset(t *testing.T) {
	r, database := newTestServer(t)
	id := createDataset(t, database, "RT-1", datatypes.JSONMap{"country": "USA"})

	w := doRequest(t, r, "GET", "/api/datasets/"+id, nil, "")
	require.Equal(t, 200, w.Code)
	require.Equal(t, "RT-1", decodeJSON(t, w)["dataset_name"])

	w = doRequest(t, r, "GET", "/api/datasets/missing", nil, "")
	require.Equal(t, 404, w.Code)

	w = doRequest(t, r, "PUT", "/api/datasets/"+id, map[string]interface{}{
		"dataset_name": "RT-1 v2",
		"country":      "Japan",
	}, "")
	require.Equal(t, 200, w.Code)

	var dataset models.Dataset
	require.NoError(t, database.First(&dataset, "id = ?", id).Error)
	require.Equal(t, "RT-1 v2", dataset.Name)
	require.Equal(t, "Japan", dataset.Fields["country"])
}

func TestSaveDatasetIdempotent(t *testing.T) {
	r, database := newTestServer(t)
	token := signupAndVerify(t, r, database, "alice", "alice@example.com", "pw")
	id := createDataset(t, database, "RT-1", nil)

	for i := 0; i < 2; i++ {
		w := doRequest(t, r, "POST", "/api/datasets/"+id+"/save", nil, token)
		require.Equal(t, 200, w.Code)
		require.Equal(t, true, decodeJSON(t, w)["saved"])
	}

	var user models.User
	require.NoError(t, database.Where("username = ?", "alice").First(&user).Error)
	require.Equal(t, []string{id}, user.SavedDatasets)
}

func TestSaveDatasetMissing(t *testing.T) {
	r, database := newTestServer(t)
	token := signupAndVerify(t, r, database, "alice", "alice@example.com", "pw")

	w := doRequest(t, r, "POST", "/api/datasets/ghost/save", nil, token)
	require.Equal(t, 404, w.Code)
}

func TestUnsaveReportsRemoval(t *testing.T) {
	r, database := newTestServer(t)
	token := signupAndVerify(t, r, database, "alice", "alice@example.com", "pw")
	id := createDataset(t, database, "RT-1", nil)

	w := doRequest(t, r, "DELETE", "/api/datasets/"+id+"/unsave", nil, token)
	require.Equal(t, 200, w.Code)
	require.Equal(t, false, decodeJSON(t, w)["unsaved"])

	doRequest(t, r, "POST", "/api/datasets/"+id+"/save", nil, token)

	w = doRequest(t, r, "DELETE", "/api/datasets/"+id+"/unsave", nil, token)
	require.Equal(t, 200, w.Code)
	require.Equal(t, true, decodeJSON(t, w)["unsaved"])

	var user models.User
	require.NoError(t, database.Where("username = ?", "alice").First(&user).Error)
	require.Empty(t, user.SavedDatasets)
}

func TestSavedSkipsDanglingReferences(t *testing.T) {
	r, database := newTestServer(t)
	token := signupAndVerify(t, r, database, "alice", "alice@example.com", "pw")
	id := createDataset(t, database, "RT-1", nil)

	doRequest(t, r, "POST", "/api/datasets/"+id+"/save", nil, token)

	// the dataset disappears out from under the saved list
	require.NoError(t, database.Delete(&models.Dataset{ID: id}).Error)

	w := doRequest(t, r, "GET", "/api/datasets/saved", nil, token)
	require.Equal(t, 200, w.Code)
	require.Empty(t, decodeJSONList(t, w))
}

func TestDeleteDatasetCleansOwnSavedOnly(t *testing.T) {
	r, database := newTestServer(t)
	tokenA := signupAndVerify(t, r, database, "alice", "alice@example.com", "pw")
	tokenB := signupAndVerify(t, r, database, "bob", "bob@example.com", "pw")
	id := createDataset(t, database, "RT-1", nil)

	doRequest(t, r, "POST", "/api/datasets/"+id+"/save", nil, tokenA)
	doRequest(t, r, "POST", "/api/datasets/"+id+"/save", nil, tokenB)

	w := doRequest(t, r, "DELETE", "/api/datasets/"+id, nil, tokenA)
	require.Equal(t, 200, w.Code)
	require.Equal(t, true, decodeJSON(t, w)["removed_from_saved"])

	var alice, bob models.User
	require.NoError(t, database.Where("username = ?", "alice").First(&alice).Error)
	require.NoError(t, database.Where("username = ?", "bob").First(&bob).Error)
	require.Empty(t, alice.SavedDatasets)

	// bob keeps a dangling reference, which readers silently skip
	require.Equal(t, []string{id}, bob.SavedDatasets)

	w = doRequest(t, r, "GET", "/api/datasets/saved", nil, tokenB)
	require.Equal(t, 200, w.Code)
	require.Empty(t, decodeJSONList(t, w))
}

func TestSearchDatasets(t *testing.T) {
	r, database := newTestServer(t)
	token := signupAndVerify(t, r, database, "alice", "alice@example.com", "pw")

	japan := createDataset(t, database, "Robo-Japan", datatypes.JSONMap{"country": "Japan", "episodes": float64(100)})
	usa := createDataset(t, database, "RT-1", datatypes.JSONMap{"country": "USA", "episodes": float64(500)})

	// token may travel in the body under the reserved key
	w := doRequest(t, r, "POST", "/api/datasets/search", map[string]interface{}{
		"token":   token,
		"country": "jap",
	}, "")
	require.Equal(t, 200, w.Code, w.Body.String())

	results := decodeJSONList(t, w)
	require.Len(t, results, 2)
	require.Equal(t, japan, results[0]["id"])
	require.Equal(t, usa, results[1]["id"])

	// numeric params match by equality; bearer header works too
	w = doRequest(t, r, "POST", "/api/datasets/search", map[string]interface{}{
		"episodes": float64(500),
	}, token)
	require.Equal(t, 200, w.Code)
	results = decodeJSONList(t, w)
	require.Equal(t, usa, results[0]["id"])

	w = doRequest(t, r, "POST", "/api/datasets/search", map[string]interface{}{"country": "jap"}, "")
	require.Equal(t, 401, w.Code)
}

func TestSearchByDatasetName(t *testing.T) {
	r, database := newTestServer(t)
	token := signupAndVerify(t, r, database, "alice", "alice@example.com", "pw")

	rt1 := createDataset(t, database, "RT-1", nil)
	createDataset(t, database, "BridgeData", nil)

	w := doRequest(t, r, "POST", "/api/datasets/search", map[string]interface{}{
		"dataset_name": "rt-",
	}, token)
	require.Equal(t, 200, w.Code)

	results := decodeJSONList(t, w)
	require.Len(t, results, 2)
	require.Equal(t, rt1, results[0]["id"])
}
