package clinic

import (
	"context"
	"errors"
)

// Enroll enrolls the client in each listed program. Programs the client is
// already enrolled in are reported, not treated as errors; ids that match
// no program are ignored.
func (s *Service) Enroll(ctx context.Context, clientID uint, programIDs []uint) (*EnrollResult, error) {
	ids := uniqueIDs(programIDs)
	result := EnrollResult{
		Enrolled:        []Program{},
		AlreadyEnrolled: []Program{},
		Unknown:         []uint{},
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := tx.GetClient(ctx, clientID); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		programs, err := tx.ListProgramsByIDs(ctx, ids)
		if err != nil {
			return err
		}

		found := make(map[uint]struct{}, len(programs))
		for _, program := range programs {
			found[program.ID] = struct{}{}
			added, err := tx.AddEnrollment(ctx, clientID, program.ID)
			if err != nil {
				return err
			}
			if added {
				result.Enrolled = append(result.Enrolled, program)
			} else {
				result.AlreadyEnrolled = append(result.AlreadyEnrolled, program)
			}
		}

		for _, id := range ids {
			if _, ok := found[id]; !ok {
				result.Unknown = append(result.Unknown, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Unenroll returns ErrNotEnrolled together with the resolved client and
// program when the two exist but are not linked.
func (s *Service) Unenroll(ctx context.Context, clientID, programID uint) (*EnrollmentRef, error) {
	var ref EnrollmentRef
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		client, err := tx.GetClient(ctx, clientID)
		if err != nil {
			return err
		}
		program, err := tx.GetProgram(ctx, programID)
		if err != nil {
			return err
		}
		ref = EnrollmentRef{Client: *client, Program: *program}

		deleted, err := tx.DeleteEnrollment(ctx, clientID, programID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrNotEnrolled
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotEnrolled) {
			return &ref, err
		}
		return nil, err
	}
	return &ref, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
