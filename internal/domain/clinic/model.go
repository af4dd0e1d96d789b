package clinic

import "time"

type Client struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:120;not null;uniqueIndex"`
	Age       int       `gorm:"not null"`
	Gender    string    `gorm:"size:10;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

type Program struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"size:120;not null;uniqueIndex"`
	Description string    `gorm:"type:text;not null;default:''"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// Enrollment links one client to one program. Both sides cascade.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey"`
	ClientID  uint      `gorm:"not null;uniqueIndex:idx_enrollments_client_program,priority:1"`
	ProgramID uint      `gorm:"not null;uniqueIndex:idx_enrollments_client_program,priority:2;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Client  Client  `gorm:"foreignKey:ClientID;references:ID;constraint:OnDelete:CASCADE"`
	Program Program `gorm:"foreignKey:ProgramID;references:ID;constraint:OnDelete:CASCADE"`
}

type ClientProfile struct {
	Client   Client
	Programs []Program
}

type ProgramDetails struct {
	Program Program
	Clients []Client
}

type CreateClientInput struct {
	Name   string
	Age    int
	Gender string
}

type UpdateClientInput struct {
	ID   uint
	Name *string
	Age  *int
}

type CreateProgramInput struct {
	Name        string
	Description string
}

type EnrollResult struct {
	Enrolled        []Program
	AlreadyEnrolled []Program
	Unknown         []uint
}

// ClientSummary is a client with the names of the programs it is enrolled in.
type ClientSummary struct {
	Client   Client
	Programs []string
}

type EnrollmentRef struct {
	Client  Client
	Program Program
}
