package clinic

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	CreateClient(ctx context.Context, client *Client) error
	GetClient(ctx context.Context, id uint) (*Client, error)
	GetClientByName(ctx context.Context, name string) (*Client, error)
	ListClients(ctx context.Context) ([]Client, error)
	SearchClients(ctx context.Context, term string) ([]Client, error)
	UpdateClient(ctx context.Context, id uint, updates map[string]any) error
	DeleteClient(ctx context.Context, id uint) error

	CreateProgram(ctx context.Context, program *Program) error
	GetProgram(ctx context.Context, id uint) (*Program, error)
	GetProgramByName(ctx context.Context, name string) (*Program, error)
	ListPrograms(ctx context.Context) ([]Program, error)
	ListProgramsByIDs(ctx context.Context, ids []uint) ([]Program, error)
	DeleteProgram(ctx context.Context, id uint) error

	// AddEnrollment reports false when the pair is already enrolled.
	AddEnrollment(ctx context.Context, clientID, programID uint) (bool, error)
	// DeleteEnrollment reports false when there was nothing to delete.
	DeleteEnrollment(ctx context.Context, clientID, programID uint) (bool, error)
	ListProgramsByClient(ctx context.Context, clientID uint) ([]Program, error)
	ListClientsByProgram(ctx context.Context, programID uint) ([]Client, error)
	ListEnrolledProgramNames(ctx context.Context, clientIDs []uint) (map[uint][]string, error)
}
