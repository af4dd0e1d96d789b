package clinic

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) RegisterClient(ctx context.Context, input CreateClientInput) (*Client, error) {
	name := strings.TrimSpace(input.Name)
	gender := strings.TrimSpace(input.Gender)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if gender == "" {
		return nil, fmt.Errorf("%w: gender is required", ErrInvalidInput)
	}
	if input.Age < 0 {
		return nil, fmt.Errorf("%w: age must not be negative", ErrInvalidInput)
	}

	var result Client
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := tx.GetClientByName(ctx, name); err == nil {
			return ErrClientExists
		} else if !errors.Is(err, ErrClientNotFound) {
			return err
		}

		client := Client{Name: name, Age: input.Age, Gender: gender}
		if err := tx.CreateClient(ctx, &client); err != nil {
			return err
		}
		result = client
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) GetClient(ctx context.Context, id uint) (*Client, error) {
	return s.repo.GetClient(ctx, id)
}

// GetClientProfile returns the client together with the programs it is
// enrolled in.
func (s *Service) GetClientProfile(ctx context.Context, id uint) (*ClientProfile, error) {
	client, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	programs, err := s.repo.ListProgramsByClient(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ClientProfile{Client: *client, Programs: programs}, nil
}

// UpdateClient applies the non-nil fields of input.
func (s *Service) UpdateClient(ctx context.Context, input UpdateClientInput) (*Client, error) {
	updates := make(map[string]any, 2)
	var name string
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		updates["name"] = name
	}
	if input.Age != nil {
		if *input.Age < 0 {
			return nil, fmt.Errorf("%w: age must not be negative", ErrInvalidInput)
		}
		updates["age"] = *input.Age
	}

	var result Client
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		client, err := tx.GetClient(ctx, input.ID)
		if err != nil {
			return err
		}

		if name != "" && name != client.Name {
			other, err := tx.GetClientByName(ctx, name)
			if err == nil && other.ID != client.ID {
				return ErrClientExists
			}
			if err != nil && !errors.Is(err, ErrClientNotFound) {
				return err
			}
		}

		if len(updates) > 0 {
			if err := tx.UpdateClient(ctx, client.ID, updates); err != nil {
				return err
			}
		}

		updated, err := tx.GetClient(ctx, client.ID)
		if err != nil {
			return err
		}
		result = *updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteClient removes the client; its enrollments go with it through the
// foreign key cascade.
func (s *Service) DeleteClient(ctx context.Context, id uint) (*Client, error) {
	var deleted Client
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		client, err := tx.GetClient(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteClient(ctx, id); err != nil {
			return err
		}
		deleted = *client
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// ListClients returns every client, or only those whose name contains term
// regardless of case.
func (s *Service) ListClients(ctx context.Context, term string) ([]Client, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.repo.ListClients(ctx)
	}
	return s.repo.SearchClients(ctx, term)
}

func (s *Service) GetClientSummary(ctx context.Context, id uint) (*ClientSummary, error) {
	client, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	names, err := s.repo.ListEnrolledProgramNames(ctx, []uint{id})
	if err != nil {
		return nil, err
	}
	return &ClientSummary{Client: *client, Programs: nonNil(names[id])}, nil
}

func (s *Service) ListClientSummaries(ctx context.Context) ([]ClientSummary, error) {
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	if len(clients) == 0 {
		return []ClientSummary{}, nil
	}

	ids := make([]uint, 0, len(clients))
	for _, client := range clients {
		ids = append(ids, client.ID)
	}
	names, err := s.repo.ListEnrolledProgramNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]ClientSummary, 0, len(clients))
	for _, client := range clients {
		result = append(result, ClientSummary{Client: client, Programs: nonNil(names[client.ID])})
	}
	return result, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
