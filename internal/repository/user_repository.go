package repository

import (
	"migration-web/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	query := "SELECT * FROM users WHERE email = ? LIMIT 1"
	err := r.db.Get(&user, query, email)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(id string) (*models.User, error) {
	var user models.User
	query := "SELECT * FROM users WHERE id = ? LIMIT 1"
	err := r.db.Get(&user, query, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	query := `INSERT INTO users (id, email, password_hash, full_name, company)
	          VALUES (:id, :email, :password_hash, :full_name, :company)`
	_, err := r.db.NamedExec(query, user)
	return err
}

func (r *UserRepository) UpdatePasswordByEmail(email, passwordHash string) (int64, error) {
	query := "UPDATE users SET password_hash = ? WHERE email = ?"
	result, err := r.db.Exec(query, passwordHash, email)
	if err != nil {
		return 0, err
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}
