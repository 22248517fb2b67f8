package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ledata-dev/ledata/internal/models"
	"github.com/ledata-dev/ledata/internal/types"
)

func GetCurrentUser(ctx *gin.Context) (*models.User, error) {
	value, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return nil, fmt.Errorf("User not authenticated")
	}

	user, ok := value.(*models.User)

	if !ok {
		return nil, fmt.Errorf("Invalid user type in context")
	}

	return user, nil
}
