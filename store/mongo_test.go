package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"

	"cultivos/apperr"
)

func TestNotFoundOr(t *testing.T) {
	err := notFoundOr(fmt.Errorf("decode: %w", mongo.ErrNoDocuments), "farm", "find farm")
	assert.Equal(t, apperr.CodeNotFound, apperr.GetCode(err))
	assert.EqualError(t, err, "farm not found")

	cause := errors.New("connection reset")
	err = notFoundOr(cause, "farm", "find farm")
	assert.Equal(t, apperr.CodeDatabaseError, apperr.GetCode(err))
	assert.ErrorIs(t, err, cause)
}
