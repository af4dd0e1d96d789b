package clinic

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

func (s *Service) CreateProgram(ctx context.Context, input CreateProgramInput) (*Program, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	var result Program
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := tx.GetProgramByName(ctx, name); err == nil {
			return ErrProgramExists
		} else if !errors.Is(err, ErrProgramNotFound) {
			return err
		}

		program := Program{Name: name, Description: strings.TrimSpace(input.Description)}
		if err := tx.CreateProgram(ctx, &program); err != nil {
			return err
		}
		result = program
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) GetProgram(ctx context.Context, id uint) (*ProgramDetails, error) {
	program, err := s.repo.GetProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	clients, err := s.repo.ListClientsByProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProgramDetails{Program: *program, Clients: clients}, nil
}

func (s *Service) ListPrograms(ctx context.Context) ([]Program, error) {
	return s.repo.ListPrograms(ctx)
}

// DeleteProgram removes the program and, through the cascade, every
// enrollment referencing it.
func (s *Service) DeleteProgram(ctx context.Context, id uint) (*Program, error) {
	var deleted Program
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		program, err := tx.GetProgram(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteProgram(ctx, id); err != nil {
			return err
		}
		deleted = *program
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}
