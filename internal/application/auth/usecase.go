package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
	"github.com/jhoicas/erp-ledger/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase login y resolución del actor que firma cada operación.
type AuthUseCase struct {
	userRepo repository.UserRepository
	jwtCfg   JWTConfig
	fold     cases.Caser
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, jwtCfg: jwtCfg, fold: cases.Fold()}
}

// Login verifica username/password, genera JWT y retorna token + usuario.
// El username no distingue mayúsculas; los usuarios inactivos no ingresan.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	username := uc.fold.String(strings.TrimSpace(in.Username))
	if username == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}
	user, err := uc.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.Active {
		return nil, domain.ErrForbidden
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, jwt.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Roles:    user.Roles,
	}, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   uc.jwtCfg.ExpMinutes * 60,
		User:        toUserResponse(user),
	}, nil
}

// Actor devuelve el usuario activo identificado por el token (el actor de las operaciones).
func (uc *AuthUseCase) Actor(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, domain.ErrUnauthorized
	}
	out := toUserResponse(user)
	return &out, nil
}

func toUserResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Roles:    append([]string(nil), u.Roles...),
	}
}
