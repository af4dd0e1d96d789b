package clinic

import (
	"context"
	"errors"
	"strings"

	clinicdomain "clinic-app-go/internal/domain/clinic"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(clinicdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) CreateClient(ctx context.Context, client *clinicdomain.Client) error {
	err := r.db.WithContext(ctx).Create(client).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return clinicdomain.ErrClientExists
	}
	return err
}

func (r *PostgresRepository) GetClient(ctx context.Context, id uint) (*clinicdomain.Client, error) {
	var client clinicdomain.Client
	if err := r.db.WithContext(ctx).First(&client, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, clinicdomain.ErrClientNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (r *PostgresRepository) GetClientByName(ctx context.Context, name string) (*clinicdomain.Client, error) {
	var client clinicdomain.Client
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, clinicdomain.ErrClientNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (r *PostgresRepository) ListClients(ctx context.Context) ([]clinicdomain.Client, error) {
	var clients []clinicdomain.Client
	if err := r.db.WithContext(ctx).Order("id asc").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *PostgresRepository) SearchClients(ctx context.Context, term string) ([]clinicdomain.Client, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"

	var clients []clinicdomain.Client
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? ESCAPE '\\'", pattern).
		Order("id asc").
		Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *PostgresRepository) UpdateClient(ctx context.Context, id uint, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&clinicdomain.Client{}).Where("id = ?", id).Updates(updates)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return clinicdomain.ErrClientExists
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return clinicdomain.ErrClientNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteClient(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&clinicdomain.Client{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return clinicdomain.ErrClientNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateProgram(ctx context.Context, program *clinicdomain.Program) error {
	err := r.db.WithContext(ctx).Create(program).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return clinicdomain.ErrProgramExists
	}
	return err
}

func (r *PostgresRepository) GetProgram(ctx context.Context, id uint) (*clinicdomain.Program, error) {
	var program clinicdomain.Program
	if err := r.db.WithContext(ctx).First(&program, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, clinicdomain.ErrProgramNotFound
		}
		return nil, err
	}
	return &program, nil
}

func (r *PostgresRepository) GetProgramByName(ctx context.Context, name string) (*clinicdomain.Program, error) {
	var program clinicdomain.Program
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&program).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, clinicdomain.ErrProgramNotFound
		}
		return nil, err
	}
	return &program, nil
}

func (r *PostgresRepository) ListPrograms(ctx context.Context) ([]clinicdomain.Program, error) {
	var programs []clinicdomain.Program
	if err := r.db.WithContext(ctx).Order("id asc").Find(&programs).Error; err != nil {
		return nil, err
	}
	return programs, nil
}

func (r *PostgresRepository) ListProgramsByIDs(ctx context.Context, ids []uint) ([]clinicdomain.Program, error) {
	if len(ids) == 0 {
		return []clinicdomain.Program{}, nil
	}
	var programs []clinicdomain.Program
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id asc").Find(&programs).Error; err != nil {
		return nil, err
	}
	return programs, nil
}

func (r *PostgresRepository) DeleteProgram(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&clinicdomain.Program{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return clinicdomain.ErrProgramNotFound
	}
	return nil
}

func (r *PostgresRepository) AddEnrollment(ctx context.Context, clientID, programID uint) (bool, error) {
	enrollment := clinicdomain.Enrollment{ClientID: clientID, ProgramID: programID}
	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}, {Name: "program_id"}},
			DoNothing: true,
		}).
		Create(&enrollment)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PostgresRepository) DeleteEnrollment(ctx context.Context, clientID, programID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("client_id = ? AND program_id = ?", clientID, programID).
		Delete(&clinicdomain.Enrollment{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PostgresRepository) ListProgramsByClient(ctx context.Context, clientID uint) ([]clinicdomain.Program, error) {
	var programs []clinicdomain.Program
	if err := r.db.WithContext(ctx).
		Model(&clinicdomain.Program{}).
		Select("programs.*").
		Joins("join enrollments on enrollments.program_id = programs.id").
		Where("enrollments.client_id = ?", clientID).
		Order("enrollments.id asc").
		Find(&programs).Error; err != nil {
		return nil, err
	}
	return programs, nil
}

func (r *PostgresRepository) ListClientsByProgram(ctx context.Context, programID uint) ([]clinicdomain.Client, error) {
	var clients []clinicdomain.Client
	if err := r.db.WithContext(ctx).
		Model(&clinicdomain.Client{}).
		Select("clients.*").
		Joins("join enrollments on enrollments.client_id = clients.id").
		Where("enrollments.program_id = ?", programID).
		Order("enrollments.id asc").
		Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *PostgresRepository) ListEnrolledProgramNames(ctx context.Context, clientIDs []uint) (map[uint][]string, error) {
	result := make(map[uint][]string, len(clientIDs))
	if len(clientIDs) == 0 {
		return result, nil
	}

	type enrolledRow struct {
		ClientID uint   `gorm:"column:client_id"`
		Name     string `gorm:"column:name"`
	}

	var rows []enrolledRow
	if err := r.db.WithContext(ctx).
		Table("enrollments").
		Select("enrollments.client_id, programs.name").
		Joins("join programs on programs.id = enrollments.program_id").
		Where("enrollments.client_id IN ?", clientIDs).
		Order("enrollments.id asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.ClientID] = append(result[row.ClientID], row.Name)
	}
	return result, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}
