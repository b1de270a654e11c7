package services

import (
	"fmt"
	"time"

	"mentorlink/auth"
	"mentorlink/domain"
	"mentorlink/errors"
	"mentorlink/repositories"
)

type IAuthService interface {
	Register(fullName, email, password, role string) (Token, error)
	Login(email, password string) (Token, error)
}

type AuthService struct {
	userRepository repositories.IUserRepository
	tokens         *auth.TokenIssuer
	tokenDuration  time.Duration
}

type Token string

func NewAuthService(repo repositories.IUserRepository, tokens *auth.TokenIssuer,
	tokenDuration time.Duration) IAuthService {
	return &AuthService{userRepository: repo, tokens: tokens, tokenDuration: tokenDuration}
}

func (s *AuthService) Register(fullName, email, password, role string) (Token, error) {
	valReq := auth.RegisterRequest{
		FullName: fullName,
		Email:    email,
		Password: password,
		Role:     role,
	}

	// 1. Validate business rules (email format, role enum, password complexity)
	// We check this before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}
	parsedRole, err := domain.ParseRole(role)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidRole, err)
	}

	// 2. Hash the password using Argon2id
	// Done in the service layer to keep the repository unaware of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist the user with the generated hash
	userID, err := s.userRepository.CreateUser(fullName, email, hashedPassword, parsedRole)
	if err != nil {
		return "", err // Will propagate ErrUserAlreadyExists if email is taken
	}

	// 4. Generate the initial session token
	token, err := s.tokens.Generate(userID, string(parsedRole), s.tokenDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}

func (s *AuthService) Login(email, password string) (Token, error) {
	// 1. Retrieve user by email from storage
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return "", errors.ErrInvalidCredentials
	}

	// 2. Compare the provided password with the stored hash
	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	// 3. Issue the JWT token
	token, err := s.tokens.Generate(user.ID, user.Role, s.tokenDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}
