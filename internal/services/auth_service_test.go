package services_test

import (
	"fmt"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"kahawa/internal/models"
	"kahawa/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// TestMain suppresses logging during tests for cleaner output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestAuthService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_jwt_secret", time.Hour)

	user := &models.User{
		Username:    "testuser",
		Email:       "test@example.com",
		Password:    "password123",
		Name:        "Test User",
		PhoneNumber: "+254700000000",
	}

	mockRepo.On("GetByUsername", user.Username).Return(nil, nil).Once()
	mockRepo.On("GetByEmail", user.Email).Return(nil, nil).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	err := authService.RegisterUser(user, nil)
	assert.NoError(t, err)
	// Self-registration always produces a customer with a hashed password.
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUser_DuplicateUsername(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_jwt_secret", time.Hour)

	existing := &models.User{ID: "user-1", Username: "testuser"}
	mockRepo.On("GetByUsername", "testuser").Return(existing, nil).Once()

	err := authService.RegisterUser(&models.User{
		Username: "testuser",
		Email:    "other@example.com",
		Password: "password123",
	}, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already taken")
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUser_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_jwt_secret", time.Hour)

	existing := &models.User{ID: "user-1", Email: "test@example.com"}
	mockRepo.On("GetByUsername", "testuser").Return(nil, nil).Once()
	mockRepo.On("GetByEmail", "test@example.com").Return(existing, nil).Once()

	err := authService.RegisterUser(&models.User{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "password123",
	}, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterEmployee(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_jwt_secret", time.Hour)

	// Anonymous callers and customers cannot mint employee accounts.
	var permErr *models.PermissionDeniedError
	err := authService.RegisterUser(&models.User{Username: "newhire", Role: models.RoleEmployee}, nil)
	assert.ErrorAs(t, err, &permErr)

	customer := &models.Actor{ID: "cust-1", Role: models.RoleCustomer}
	err = authService.RegisterUser(&models.User{Username: "newhire", Role: models.RoleEmployee}, customer)
	assert.ErrorAs(t, err, &permErr)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)

	// An existing employee can.
	mockRepo.On("GetByUsername", "newhire").Return(nil, nil).Once()
	mockRepo.On("GetByEmail", "newhire@example.com").Return(nil, nil).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	employee := &models.Actor{ID: "emp-1", Role: models.RoleEmployee}
	user := &models.User{
		Username: "newhire",
		Email:    "newhire@example.com",
		Password: "password123",
		Role:     models.RoleEmployee,
	}
	err = authService.RegisterUser(user, employee)
	assert.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, user.Role)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_jwt_secret", time.Hour)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{
		ID:       "user-123",
		Username: "testuser",
		Password: string(hashedPassword),
		Role:     models.RoleEmployee,
	}

	// Successful login returns a token carrying the identity and role claims.
	mockRepo.On("GetByUsername", "testuser").Return(user, nil).Once()
	tokenString, err := authService.LoginUser("testuser", "password123")
	assert.NoError(t, err)
	assert.NotEmpty(t, tokenString)

	claims, err := authService.ValidateToken(tokenString)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", claims["user_id"])
	assert.Equal(t, string(models.RoleEmployee), claims["role"])

	// Wrong password.
	mockRepo.On("GetByUsername", "testuser").Return(user, nil).Once()
	_, err = authService.LoginUser("testuser", "wrongpassword")
	assert.Error(t, err)
	assert.Equal(t, "invalid credentials", err.Error())

	// Unknown username gets the same opaque error.
	mockRepo.On("GetByUsername", "ghost").Return(nil, fmt.Errorf("user not found")).Once()
	_, err = authService.LoginUser("ghost", "password123")
	assert.Error(t, err)
	assert.Equal(t, "invalid credentials", err.Error())
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken_Invalid(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, "test_jwt_secret", time.Hour)

	_, err := authService.ValidateToken("not.a.token")
	assert.Error(t, err)

	// A token signed with a different secret is rejected.
	other := services.NewAuthService(mockRepo, "another_secret", time.Hour)
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{ID: "user-123", Username: "testuser", Password: string(hashedPassword)}
	mockRepo.On("GetByUsername", "testuser").Return(user, nil).Once()
	tokenString, err := other.LoginUser("testuser", "password123")
	assert.NoError(t, err)

	_, err = authService.ValidateToken(tokenString)
	assert.Error(t, err)
}
