package user

import (
	"context"
	"time"

	"github.com/pcd-labs/smart-mobility/pkg/mongo"
)

const collectionName = "users"

type userEntity struct {
	ID            string    `bson:"_id"`
	FirstName     string    `bson:"firstName"`
	LastName      string    `bson:"lastName"`
	Email         string    `bson:"email"`
	PhoneNumber   string    `bson:"phoneNumber"`
	LicenseNumber string    `bson:"licenseNumber"`
	DriverStatus  string    `bson:"driverStatus"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
	Version       int       `bson:"version"`
}

type userMapper struct{}

func (userMapper) ToEntity(u *User) *userEntity {
	return &userEntity{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		PhoneNumber:   u.PhoneNumber,
		LicenseNumber: u.LicenseNumber,
		DriverStatus:  string(u.DriverStatus),
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
		Version:       u.Version,
	}
}

func (userMapper) ToDomain(e *userEntity) *User {
	return &User{
		ID:            e.ID,
		FirstName:     e.FirstName,
		LastName:      e.LastName,
		Email:         e.Email,
		PhoneNumber:   e.PhoneNumber,
		LicenseNumber: e.LicenseNumber,
		DriverStatus:  DriverStatus(e.DriverStatus),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
		Version:       e.Version,
	}
}

func (userMapper) GetID(e *userEntity) string      { return e.ID }
func (userMapper) GetVersion(e *userEntity) int    { return e.Version }
func (userMapper) SetVersion(e *userEntity, v int) { e.Version = v }

// Repository is the persistence port of the user service.
type Repository interface {
	Insert(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindWithOptions(ctx context.Context, opts mongo.QueryOptions) (*mongo.PageResult[User], error)
	Update(ctx context.Context, u *User) (*User, error)
	Delete(ctx context.Context, id string) error
}

func newRepository(m mongo.Mongo) (Repository, error) {
	return mongo.NewGenericRepository[User, userEntity](m.GetCollection(collectionName), userMapper{})
}
