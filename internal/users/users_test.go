package users_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"peyda/internal/testsupport"
	"peyda/internal/users"
)

func TestFindByEmail(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("finds existing user", func(t *testing.T) {
		created := testsupport.CreateTestAdminUser(db, "admin@example.com", "password123")

		found, err := users.FindByEmail(db, "admin@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, created.Email, found.Email)
	})

	t.Run("returns error for non-existent user", func(t *testing.T) {
		found, err := users.FindByEmail(db, "nobody@example.com")
		assert.Nil(t, found)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestCreateAdminUser(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("creates new admin user", func(t *testing.T) {
		require.NoError(t, users.CreateAdminUser(dbManager, "new@example.com", "securepassword"))

		found, err := users.FindByEmail(db, "new@example.com")
		require.NoError(t, err)
		assert.NotEmpty(t, found.EncryptedPassword)
		assert.NotEqual(t, "securepassword", found.EncryptedPassword)
	})

	t.Run("rejects duplicate user", func(t *testing.T) {
		require.NoError(t, users.CreateAdminUser(dbManager, "dup@example.com", "password1"))

		err := users.CreateAdminUser(dbManager, "dup@example.com", "password2")
		assert.ErrorIs(t, err, users.ErrUserExists)
	})

	t.Run("rejects empty email or password", func(t *testing.T) {
		assert.Error(t, users.CreateAdminUser(dbManager, "", "password"))
		assert.Error(t, users.CreateAdminUser(dbManager, "blank@example.com", ""))
	})
}

func TestVerifyPassword(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	require.NoError(t, users.CreateAdminUser(dbManager, "verify@example.com", "correct-horse"))

	t.Run("accepts correct credentials", func(t *testing.T) {
		user, err := users.VerifyPassword(db, "verify@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, "verify@example.com", user.Email)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		user, err := users.VerifyPassword(db, "verify@example.com", "battery-staple")
		assert.Nil(t, user)
		assert.Error(t, err)
	})

	t.Run("rejects unknown user", func(t *testing.T) {
		_, err := users.VerifyPassword(db, "ghost@example.com", "anything")
		assert.Error(t, err)
	})
}

func TestChangePassword(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	require.NoError(t, users.CreateAdminUser(dbManager, "rotate@example.com", "old-password"))
	require.NoError(t, users.ChangePassword(dbManager, "rotate@example.com", "new-password"))

	_, err := users.VerifyPassword(db, "rotate@example.com", "old-password")
	assert.Error(t, err)

	user, err := users.VerifyPassword(db, "rotate@example.com", "new-password")
	require.NoError(t, err)
	assert.Equal(t, "rotate@example.com", user.Email)

	t.Run("rejects empty password", func(t *testing.T) {
		assert.Error(t, users.ChangePassword(dbManager, "rotate@example.com", ""))
	})

	t.Run("rejects unknown user", func(t *testing.T) {
		assert.Error(t, users.ChangePassword(dbManager, "ghost@example.com", "whatever"))
	})
}
