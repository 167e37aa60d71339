package internal

import (
	"spoileralert/spoiler-api/internal/service"
	"spoileralert/spoiler-api/pkg/security"

	"gorm.io/gorm"
)

type Deps struct {
	DB         *gorm.DB
	Argon      *security.ArgonHash
	Dispatcher *service.Dispatcher
	Movies     *service.MovieClient
	Spoilers   *service.SpoilerGenerator
}
