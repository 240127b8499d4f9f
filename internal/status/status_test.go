package status

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, OK, CodeOf(nil))
	assert.Equal(t, NotFound, CodeOf(NotFoundf("event %q not found", "e1")))
	assert.Equal(t, AlreadyExists, CodeOf(AlreadyExistsf("dup")))
	assert.Equal(t, Internal, CodeOf(errors.New("plain failure")))
}

func TestCodeOfWrappedError(t *testing.T) {
	err := fmt.Errorf("joining: %w", ResourceExhaustedf("event full"))
	assert.Equal(t, ResourceExhausted, CodeOf(err))
	assert.True(t, Is(err, ResourceExhausted))
	assert.False(t, Is(err, NotFound))
	assert.False(t, Is(nil, OK))
}

func TestInternalfKeepsCause(t *testing.T) {
	cause := errors.New("disk gone")
	err := Internalf(cause, "save membership %q", "ue1")
	assert.Equal(t, Internal, CodeOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "INTERNAL")
	assert.Contains(t, err.Error(), "disk gone")
}

func TestCodeStrings(t *testing.T) {
	assert.Equal(t, "OK", OK.String())
	assert.Equal(t, "NOT_FOUND", NotFound.String())
	assert.Equal(t, "FAILED_PRECONDITION", FailedPrecondition.String())
	assert.Equal(t, "INVALID_ARGUMENT", InvalidArgument.String())
	assert.Equal(t, "INTERNAL", Code(99).String())
}
