package ports

import "github.com/tombolabs/tombola/internal/core/domain"

type RepoManager interface {
	Events() domain.RoundEventRepository
	Rounds() domain.RoundRepository
	Assets() domain.AssetRepository
	Params() domain.ParamsRepository
	Close()
}
