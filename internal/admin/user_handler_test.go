package admin

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"

	"factory-backend/internal/auth"
	"factory-backend/internal/models"
	"factory-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newApp(db *gorm.DB) *fiber.App {
	app := fiber.New()
	app.Use(auth.JWTMiddleware(testSecret))
	app.Get("/users", ListUsersHandler(db))
	app.Put("/users/:id/role", UpdateUserRoleHandler(db))
	app.Delete("/users/:id", DeleteUserHandler(db))
	return app
}

func call(t *testing.T, app *fiber.App, as *models.User, method, path string, body any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	tok, err := auth.GenerateToken(testSecret, as)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode
}

func userPath(u *models.User) string {
	return "/users/" + strconv.FormatUint(uint64(u.ID), 10)
}

func TestUpdateUserRole(t *testing.T) {
	db := testutil.DB(t)
	root := testutil.SeedUser(t, db, "root@example.com", "password123", models.RoleAdmin)
	sam := testutil.SeedUser(t, db, "sam@example.com", "password123", models.RoleSalesDirector)
	app := newApp(db)

	if got := call(t, app, root, "PUT", userPath(sam)+"/role", map[string]string{"role": "material_manager"}); got != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", got)
	}
	var reloaded models.User
	db.First(&reloaded, sam.ID)
	if reloaded.Role != models.RoleMaterialManager {
		t.Fatalf("role = %s", reloaded.Role)
	}
	var n int64
	db.Model(&models.AuditLog{}).Where("entity_type = ? AND entity_id = ?", "user", sam.ID).Count(&n)
	if n != 1 {
		t.Fatalf("audit rows = %d, want 1", n)
	}

	if got := call(t, app, root, "PUT", userPath(sam)+"/role", map[string]string{"role": "owner"}); got != fiber.StatusBadRequest {
		t.Fatalf("unknown role: status = %d, want 400", got)
	}
	if got := call(t, app, root, "PUT", "/users/999/role", map[string]string{"role": "admin"}); got != fiber.StatusNotFound {
		t.Fatalf("missing user: status = %d, want 404", got)
	}
	if got := call(t, app, root, "PUT", userPath(root)+"/role", map[string]string{"role": "sales_director"}); got != fiber.StatusConflict {
		t.Fatalf("demoting last admin: status = %d, want 409", got)
	}
}

func TestDeleteUser(t *testing.T) {
	db := testutil.DB(t)
	root := testutil.SeedUser(t, db, "root@example.com", "password123", models.RoleAdmin)
	other := testutil.SeedUser(t, db, "other@example.com", "password123", models.RoleAdmin)
	sam := testutil.SeedUser(t, db, "sam@example.com", "password123", models.RoleSalesDirector)
	app := newApp(db)

	if got := call(t, app, root, "DELETE", userPath(root), nil); got != fiber.StatusConflict {
		t.Fatalf("self delete: status = %d, want 409", got)
	}
	if got := call(t, app, root, "DELETE", userPath(sam), nil); got != fiber.StatusNoContent {
		t.Fatalf("status = %d, want 204", got)
	}
	if got := call(t, app, root, "DELETE", userPath(other), nil); got != fiber.StatusNoContent {
		t.Fatalf("other admin: status = %d, want 204", got)
	}
	// root is the only admin left
	if got := call(t, app, other, "DELETE", userPath(root), nil); got != fiber.StatusConflict {
		t.Fatalf("last admin: status = %d, want 409", got)
	}

	var left int64
	db.Model(&models.User{}).Count(&left)
	if left != 1 {
		t.Fatalf("users left = %d, want 1", left)
	}
}

func TestListUsersFiltersByRole(t *testing.T) {
	db := testutil.DB(t)
	root := testutil.SeedUser(t, db, "root@example.com", "password123", models.RoleAdmin)
	testutil.SeedUser(t, db, "sam@example.com", "password123", models.RoleSalesDirector)
	testutil.SeedUser(t, db, "mia@example.com", "password123", models.RoleMaterialManager)
	app := newApp(db)

	req := httptest.NewRequest("GET", "/users?role=sales_director", nil)
	tok, _ := auth.GenerateToken(testSecret, root)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	var users []UserResponse
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0].Email != "sam@example.com" {
		t.Fatalf("users = %+v", users)
	}

	if got := call(t, app, root, "GET", "/users?role=owner", nil); got != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", got)
	}
}
