package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskmanager/backend/apperrors"
	"taskmanager/backend/models"
	"taskmanager/backend/repositories/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const inviteToken = "let-me-admin"

func newAuth(users *repotest.UserStore, opts ...AuthOption) (*AuthService, *JWTService) {
	tokens := NewJWTService("test-secret", time.Hour)
	opts = append([]AuthOption{WithHashCost(bcrypt.MinCost)}, opts...)
	return NewAuthService(users, tokens, inviteToken, opts...), tokens
}

func TestAuthService_RegisterMember(t *testing.T) {
	users := repotest.NewUserStore()
	svc, tokens := newAuth(users)

	res, err := svc.Register(context.Background(), models.RegisterInput{
		Name: "Mia Member", Email: "mia@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleMember, res.Role)
	assert.NotEmpty(t, res.Token)
	id, err := tokens.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.ID, id)

	stored, err := users.FindUserByEmail(context.Background(), "mia@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret123")))
}

func TestAuthService_RegisterAdminInvite(t *testing.T) {
	svc, _ := newAuth(repotest.NewUserStore())
	ctx := context.Background()

	res, err := svc.Register(ctx, models.RegisterInput{
		Name: "Ada Admin", Email: "ada@example.com", Password: "secret123", AdminInviteToken: inviteToken,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.Role)

	_, err = svc.Register(ctx, models.RegisterInput{
		Name: "Eve Evil", Email: "eve@example.com", Password: "secret123", AdminInviteToken: "guess",
	})
	assertKind(t, err, apperrors.Validation)
}

func TestAuthService_RegisterInviteWithoutConfiguredSecret(t *testing.T) {
	tokens := NewJWTService("test-secret", time.Hour)
	svc := NewAuthService(repotest.NewUserStore(), tokens, "", WithHashCost(bcrypt.MinCost))

	_, err := svc.Register(context.Background(), models.RegisterInput{
		Name: "Eve Evil", Email: "eve@example.com", Password: "secret123", AdminInviteToken: "anything",
	})
	assertKind(t, err, apperrors.Validation)
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	users := repotest.NewUserStore(models.User{Email: "mia@example.com", Role: models.RoleMember})
	svc, _ := newAuth(users)

	_, err := svc.Register(context.Background(), models.RegisterInput{
		Name: "Mia Again", Email: "mia@example.com", Password: "secret123",
	})
	assertKind(t, err, apperrors.Conflict)
	apiErr, _ := apperrors.As(err)
	assert.Equal(t, 400, apiErr.StatusCode)
	assert.Equal(t, "User already exists", apiErr.Message)
}

func TestAuthService_RegisterBlacklistedPassword(t *testing.T) {
	svc, _ := newAuth(repotest.NewUserStore(), WithPasswordBlacklist(NewPasswordBlacklist("password1")))

	_, err := svc.Register(context.Background(), models.RegisterInput{
		Name: "Mia Member", Email: "mia@example.com", Password: "password1",
	})
	assertKind(t, err, apperrors.Validation)
}

func TestAuthService_Login(t *testing.T) {
	users := repotest.NewUserStore()
	svc, _ := newAuth(users)
	ctx := context.Background()
	_, err := svc.Register(ctx, models.RegisterInput{Name: "Mia Member", Email: "mia@example.com", Password: "secret123"})
	require.NoError(t, err)

	res, err := svc.Login(ctx, models.LoginInput{Email: "mia@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "Mia Member", res.Name)

	_, err = svc.Login(ctx, models.LoginInput{Email: "mia@example.com", Password: "wrong1234"})
	assertKind(t, err, apperrors.Authentication)

	_, err = svc.Login(ctx, models.LoginInput{Email: "nobody@example.com", Password: "secret123"})
	assertKind(t, err, apperrors.Authentication)
	apiErr, _ := apperrors.As(err)
	assert.Equal(t, "Invalid email or password", apiErr.Message)
}

func TestAuthService_AuthenticateResolvesRoleFromStore(t *testing.T) {
	u := models.User{ID: primitive.NewObjectID(), Email: "mia@example.com", Role: models.RoleMember}
	users := repotest.NewUserStore(u)
	svc, tokens := newAuth(users)
	ctx := context.Background()

	token, err := tokens.GenerateToken(u.ID)
	require.NoError(t, err)

	u.Role = models.RoleAdmin
	require.NoError(t, users.SaveUser(ctx, &u))

	got, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())

	_, err = svc.Authenticate(ctx, "garbage")
	assertKind(t, err, apperrors.Authentication)

	require.NoError(t, users.DeleteUser(ctx, u.ID))
	_, err = svc.Authenticate(ctx, token)
	assertKind(t, err, apperrors.Authentication)
}

func TestAuthService_Profile(t *testing.T) {
	users := repotest.NewUserStore(models.User{Email: "other@example.com", Role: models.RoleMember})
	svc, _ := newAuth(users)
	ctx := context.Background()

	reg, err := svc.Register(ctx, models.RegisterInput{Name: "Mia Member", Email: "mia@example.com", Password: "secret123"})
	require.NoError(t, err)
	caller := models.Caller{ID: reg.ID, Role: reg.Role}

	view, err := svc.GetProfile(ctx, caller)
	require.NoError(t, err)
	assert.Equal(t, "mia@example.com", view.Email)

	res, err := svc.UpdateProfile(ctx, caller, models.UpdateProfileInput{Name: "Mia Renamed", Email: "mia@example.com", Password: "newpass99"})
	require.NoError(t, err)
	assert.Equal(t, "Mia Renamed", res.Name)
	assert.NotEmpty(t, res.Token)

	_, err = svc.Login(ctx, models.LoginInput{Email: "mia@example.com", Password: "newpass99"})
	assert.NoError(t, err, "the new password is hashed and usable")
	_, err = svc.Login(ctx, models.LoginInput{Email: "mia@example.com", Password: "secret123"})
	assertKind(t, err, apperrors.Authentication)

	_, err = svc.UpdateProfile(ctx, caller, models.UpdateProfileInput{Name: "Mia Renamed", Email: "other@example.com"})
	assertKind(t, err, apperrors.Conflict)

	_, err = svc.GetProfile(ctx, models.Caller{ID: primitive.NewObjectID()})
	assertKind(t, err, apperrors.NotFound)
}

func TestJWTService(t *testing.T) {
	now := fixedNow
	tokens := NewJWTService("secret", time.Hour)
	tokens.now = func() time.Time { return now }
	id := primitive.NewObjectID()

	token, err := tokens.GenerateToken(id)
	require.NoError(t, err)

	got, err := tokens.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	other := NewJWTService("other-secret", time.Hour)
	other.now = tokens.now
	_, err = other.ValidateToken(token)
	assert.Error(t, err)

	now = now.Add(2 * time.Hour)
	_, err = tokens.ValidateToken(token)
	assert.Error(t, err, "expired")
}

func TestPasswordBlacklist(t *testing.T) {
	list, err := ParsePasswordBlacklist(strings.NewReader("# common passwords\nPassword1\n\n  qwerty123  \n"))
	require.NoError(t, err)

	assert.Len(t, list, 2)
	assert.True(t, list.Contains("password1"))
	assert.True(t, list.Contains("PASSWORD1"))
	assert.True(t, list.Contains("qwerty123"))
	assert.False(t, list.Contains("# common passwords"))
	assert.False(t, list.Contains("secret123"))

	var empty PasswordBlacklist
	assert.False(t, empty.Contains("password1"))
}

func TestLoadPasswordBlacklist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	require.NoError(t, os.WriteFile(path, []byte("password1\n"), 0o600))

	list, err := LoadPasswordBlacklist(path)
	require.NoError(t, err)
	assert.Equal(t, NewPasswordBlacklist("password1"), list)

	_, err = LoadPasswordBlacklist(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAuthService_BlacklistIgnoresCase(t *testing.T) {
	svc, _ := newAuth(repotest.NewUserStore(), WithPasswordBlacklist(NewPasswordBlacklist("password1")))

	_, err := svc.Register(context.Background(), models.RegisterInput{
		Name: "Mia Member", Email: "mia@example.com", Password: "PassWord1",
	})
	assertKind(t, err, apperrors.Validation)
}
