package validators

import "errors"

const maxMovieNameLen = 100

var (
	ErrMovieNameEmpty   = errors.New("no movie name provided")
	ErrMovieNameTooLong = errors.New("movie name is too long")
	ErrSpoilerEmpty     = errors.New("spoiler text can't be empty")
	ErrFullNameEmpty    = errors.New("no name provided")
	ErrFullNameTooLong  = errors.New("name is too long")
)

func MovieNameValidator(n string) error {
	if n == "" {
		return ErrMovieNameEmpty
	}

	if len(n) > maxMovieNameLen {
		return ErrMovieNameTooLong
	}

	return nil
}

func SpoilerValidator(s string) error {
	if s == "" {
		return ErrSpoilerEmpty
	}

	return nil
}

func FullNameValidator(n string) error {
	if n == "" {
		return ErrFullNameEmpty
	}

	if len(n) > 100 {
		return ErrFullNameTooLong
	}

	return nil
}
