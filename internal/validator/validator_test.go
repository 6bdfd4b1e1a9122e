package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listQuery struct {
	Limit  int    `validate:"gte=1,lte=1000"`
	Status string `validate:"omitempty,oneof=running completed failed"`
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, Validate(listQuery{Limit: 100}))
	assert.NoError(t, Validate(listQuery{Limit: 1, Status: "failed"}))
}

func TestValidate_OutOfRange(t *testing.T) {
	err := Validate(listQuery{Limit: 0})
	require.Error(t, err)

	verrs, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, verrs, 1)
	assert.Equal(t, "limit", verrs[0].Field)
	assert.Contains(t, verrs[0].Message, "greater than or equal to 1")
}

func TestValidate_InvalidEnum(t *testing.T) {
	err := Validate(listQuery{Limit: 10, Status: "pending"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "must be one of")
}

func TestValidate_MultipleErrors(t *testing.T) {
	err := Validate(listQuery{Limit: 5000, Status: "nope"})
	require.Error(t, err)

	verrs, ok := err.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, verrs, 2)
}
