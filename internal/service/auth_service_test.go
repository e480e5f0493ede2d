package service

import (
	"context"
	"testing"
	"time"

	"salon-inventory/internal/model"
	"salon-inventory/pkg/apperror"
	"salon-inventory/pkg/config"
	"salon-inventory/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentityServices(t *testing.T, e *env) (UserService, AuthService) {
	t.Helper()
	users := NewUserService(e.users, e.privilege, e.roles, nopLog)
	require.NoError(t, users.SeedAccessControl(context.Background()))
	auth := NewAuthService(e.users, jwt.NewManager("test-secret", "salon-test", time.Hour), nil, nopLog)
	return users, auth
}

func TestSeedAccessControlIsRepeatable(t *testing.T) {
	e := newEnv(t)
	users, _ := newIdentityServices(t, e)
	require.NoError(t, users.SeedAccessControl(context.Background()))

	roles, err := users.ListRoles(context.Background())
	require.NoError(t, err)
	assert.Len(t, roles, len(model.DefaultRoles))

	for _, role := range roles {
		assert.Len(t, role.Privileges, len(model.RolePrivileges[role.Code]), role.Code)
	}

	privileges, err := users.ListPrivileges(context.Background())
	require.NoError(t, err)
	assert.Len(t, privileges, len(model.DefaultPrivileges))
}

func TestCreateUserRules(t *testing.T) {
	e := newEnv(t)
	users, _ := newIdentityServices(t, e)

	u, err := users.CreateUser(context.Background(), testActor, &CreateUserRequest{
		Email: " Staff@Example.com ", Password: "secret1", FullName: "Asha", Role: "staff",
	})
	require.NoError(t, err)
	assert.Equal(t, "staff@example.com", u.Email)
	assert.Equal(t, model.RoleStaff, u.Role)
	assert.True(t, u.IsActive)

	_, err = users.CreateUser(context.Background(), testActor, &CreateUserRequest{
		Email: "staff@example.com", Password: "secret1", FullName: "Other", Role: "STAFF",
	})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = users.CreateUser(context.Background(), testActor, &CreateUserRequest{
		Email: "owner@example.com", Password: "secret1", FullName: "Owner", Role: model.RoleOwner,
	})
	assert.ErrorIs(t, err, ErrRoleNotAssignable)

	_, err = users.CreateUser(context.Background(), testActor, &CreateUserRequest{
		Email: "short@example.com", Password: "123", FullName: "Short", Role: "STAFF",
	})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestAdminCannotDeactivateSelf(t *testing.T) {
	e := newEnv(t)
	users, _ := newIdentityServices(t, e)
	admin, err := users.CreateUser(context.Background(), SystemActor, &CreateUserRequest{
		Email: "admin@example.com", Password: "secret1", FullName: "Admin", Role: "ADMIN",
	})
	require.NoError(t, err)

	self := Actor{ID: admin.ID.String(), Name: admin.FullName, Role: admin.Role}
	inactive := false
	_, err = users.UpdateUser(context.Background(), self, admin.ID, &UpdateUserRequest{IsActive: &inactive})
	assert.True(t, apperror.Is(err, apperror.CodePolicyViolation))

	staff, err := users.CreateUser(context.Background(), self, &CreateUserRequest{
		Email: "s@example.com", Password: "secret1", FullName: "S", Role: "STAFF",
	})
	require.NoError(t, err)
	updated, err := users.UpdateUser(context.Background(), self, staff.ID, &UpdateUserRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
}

func TestLoginIssuesSingleSessionToken(t *testing.T) {
	e := newEnv(t)
	users, auth := newIdentityServices(t, e)
	_, err := users.CreateUser(context.Background(), testActor, &CreateUserRequest{
		Email: "mgr@example.com", Password: "secret1", FullName: "Meera", Role: "MANAGER",
	})
	require.NoError(t, err)

	first, err := auth.Login(context.Background(), "MGR@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleManager, first.Role)
	assert.Contains(t, first.Privileges, model.PrivInventoryImport)
	assert.NotContains(t, first.Privileges, model.PrivProcurementApprove)

	user, err := auth.Authenticate(context.Background(), first.Token)
	require.NoError(t, err)
	assert.Equal(t, "mgr@example.com", user.Email)

	// A second login invalidates the first token.
	second, err := auth.Login(context.Background(), "mgr@example.com", "secret1")
	require.NoError(t, err)
	_, err = auth.Authenticate(context.Background(), first.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)

	resp, err := auth.ValidateToken(context.Background(), second.Token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleManager, resp.Role)
}

func TestLoginFailures(t *testing.T) {
	e := newEnv(t)
	users, auth := newIdentityServices(t, e)
	u, err := users.CreateUser(context.Background(), testActor, &CreateUserRequest{
		Email: "staff@example.com", Password: "secret1", FullName: "Asha", Role: "STAFF",
	})
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), "staff@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(context.Background(), "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	inactive := false
	_, err = users.UpdateUser(context.Background(), testActor, u.ID, &UpdateUserRequest{IsActive: &inactive})
	require.NoError(t, err)
	_, err = auth.Login(context.Background(), "staff@example.com", "secret1")
	assert.ErrorIs(t, err, ErrUserInactive)

	_, err = auth.Authenticate(context.Background(), "not-a-token")
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized))
}

func TestPasswordChangeEndsSession(t *testing.T) {
	e := newEnv(t)
	users, auth := newIdentityServices(t, e)
	u, err := users.CreateUser(context.Background(), testActor, &CreateUserRequest{
		Email: "staff@example.com", Password: "secret1", FullName: "Asha", Role: "STAFF",
	})
	require.NoError(t, err)

	login, err := auth.Login(context.Background(), "staff@example.com", "secret1")
	require.NoError(t, err)

	assert.ErrorIs(t, auth.ChangePassword(context.Background(), "staff@example.com", "bad", "secret2"), ErrWrongPassword)
	require.NoError(t, auth.ChangePassword(context.Background(), "staff@example.com", "secret1", "secret2"))

	_, err = auth.Authenticate(context.Background(), login.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)

	require.NoError(t, users.ResetPassword(context.Background(), testActor, u.ID, "secret3"))
	_, err = auth.Login(context.Background(), "staff@example.com", "secret3")
	assert.NoError(t, err)

	assert.True(t, apperror.Is(users.ResetPassword(context.Background(), testActor, uuid.New(), "secret4"), apperror.CodeNotFound))
}

func TestEnsureAdminSeed(t *testing.T) {
	e := newEnv(t)
	users, auth := newIdentityServices(t, e)

	seeded, err := users.EnsureAdminSeed(context.Background(), config.SeedConfig{})
	require.NoError(t, err)
	assert.Nil(t, seeded)

	seed := config.SeedConfig{AdminEmail: "root@example.com", AdminPassword: "changeme", AdminName: "Root"}
	seeded, err = users.EnsureAdminSeed(context.Background(), seed)
	require.NoError(t, err)
	require.NotNil(t, seeded)
	assert.Equal(t, model.RoleAdmin, seeded.Role)

	// An admin exists now, so a second run is a no-op.
	again, err := users.EnsureAdminSeed(context.Background(), config.SeedConfig{AdminEmail: "other@example.com", AdminPassword: "changeme"})
	require.NoError(t, err)
	assert.Nil(t, again)

	_, err = auth.Login(context.Background(), "root@example.com", "changeme")
	assert.NoError(t, err)
}
