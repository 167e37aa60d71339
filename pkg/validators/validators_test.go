package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailValidator(t *testing.T) {
	assert.NoError(t, EmailValidator("a@x.com"))
	assert.ErrorIs(t, EmailValidator(""), ErrEmailEmpty)
	assert.ErrorIs(t, EmailValidator("not an email"), ErrEmailInvalid)
}

func TestPasswordValidator(t *testing.T) {
	assert.NoError(t, PasswordValidator("longenough"))
	assert.ErrorIs(t, PasswordValidator(""), ErrPasswordEmpty)
	assert.ErrorIs(t, PasswordValidator("short"), ErrPasswordTooShort)
	assert.ErrorIs(t, PasswordValidator(strings.Repeat("a", 256)), ErrPasswordTooLong)
}

func TestMovieNameValidator(t *testing.T) {
	assert.NoError(t, MovieNameValidator("The Sixth Sense"))
	assert.ErrorIs(t, MovieNameValidator(""), ErrMovieNameEmpty)
	assert.ErrorIs(t, MovieNameValidator(strings.Repeat("a", 101)), ErrMovieNameTooLong)
}

func TestSpoilerValidator(t *testing.T) {
	assert.NoError(t, SpoilerValidator("He was dead the whole time"))
	assert.ErrorIs(t, SpoilerValidator(""), ErrSpoilerEmpty)
}

func TestFullNameValidator(t *testing.T) {
	assert.NoError(t, FullNameValidator("Jane Doe"))
	assert.ErrorIs(t, FullNameValidator(""), ErrFullNameEmpty)
	assert.ErrorIs(t, FullNameValidator(strings.Repeat("a", 101)), ErrFullNameTooLong)
}
