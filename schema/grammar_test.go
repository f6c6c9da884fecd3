package schema

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MySQL_CompileCreate(t *testing.T) {
	g := NewMySQLGrammar()

	tb := newTable("users", false)
	tb.Increments("id")
	tb.String("email", 191).Unique()
	tb.String("name")
	tb.Boolean("active").Default(true)
	tb.Timestamps()

	statements := g.CompileCreate(tb)
	require.Len(t, statements, 2)

	assert.Equal(
		t,
		"CREATE TABLE `users` (`id` INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY, "+
			"`email` VARCHAR(191) NOT NULL, `name` VARCHAR(255) NOT NULL, "+
			"`active` TINYINT(1) NOT NULL DEFAULT 1, `created_at` TIMESTAMP NULL, "+
			"`updated_at` TIMESTAMP NULL) ENGINE=InnoDB",
		statements[0],
	)

	assert.Equal(t, "CREATE UNIQUE INDEX `users_email_unique` ON `users` (`email`)", statements[1])
}

func Test_MySQL_CompileCreate_WithForeignKey(t *testing.T) {
	g := NewMySQLGrammar()

	tb := newTable("posts", false)
	tb.Increments("id")
	tb.Integer("user_id").Unsigned()
	tb.Foreign("user_id").References("id").On("users").OnDelete("cascade")

	statements := g.CompileCreate(tb)
	require.Len(t, statements, 1)

	assert.Equal(
		t,
		"CREATE TABLE `posts` (`id` INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY, "+
			"`user_id` INT UNSIGNED NOT NULL, "+
			"CONSTRAINT `posts_user_id_foreign` FOREIGN KEY (`user_id`) REFERENCES `users` (`id`) "+
			"ON DELETE CASCADE) ENGINE=InnoDB",
		statements[0],
	)
}

func Test_MySQL_CompileCreate_CharsetAndEngine(t *testing.T) {
	g := NewMySQLGrammar()

	tb := newTable("notes", false)
	tb.Increments("id")
	tb.Engine("MyISAM").Charset("utf8mb4").Collate("utf8mb4_unicode_ci")

	statements := g.CompileCreate(tb)
	require.Len(t, statements, 1)
	assert.Equal(
		t,
		"CREATE TABLE `notes` (`id` INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY) "+
			"ENGINE=MyISAM DEFAULT CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci",
		statements[0],
	)
}

func Test_MySQL_CompileAlter(t *testing.T) {
	g := NewMySQLGrammar()

	tb := newTable("users", true)
	tb.String("nickname", 64).Nullable().After("name")
	tb.RenameColumn("name", "full_name")
	tb.DropColumn("legacy")
	tb.DropIndex("users_email_unique")

	statements := g.CompileAlter(tb)
	require.Len(t, statements, 4)

	assert.Equal(t, "ALTER TABLE `users` ADD COLUMN `nickname` VARCHAR(64) NULL AFTER `name`", statements[0])
	assert.Equal(t, "ALTER TABLE `users` RENAME COLUMN `name` TO `full_name`", statements[1])
	assert.Equal(t, "ALTER TABLE `users` DROP COLUMN `legacy`", statements[2])
	assert.Equal(t, "DROP INDEX `users_email_unique` ON `users`", statements[3])
}

func Test_MySQL_CompileAlter_ConvertCharset(t *testing.T) {
	g := NewMySQLGrammar()

	tb := newTable("users", true)
	tb.Charset("utf8mb4").Collate("utf8mb4_unicode_ci")

	statements := g.CompileAlter(tb)
	require.Len(t, statements, 1)
	assert.Equal(
		t,
		"ALTER TABLE `users` CONVERT TO CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci",
		statements[0],
	)
}

func Test_MySQL_DropAndRename(t *testing.T) {
	g := NewMySQLGrammar()

	assert.Equal(t, "DROP TABLE `users`", g.CompileDrop("users"))
	assert.Equal(t, "DROP TABLE IF EXISTS `users`", g.CompileDropIfExists("users"))
	assert.Equal(t, "RENAME TABLE `users` TO `accounts`", g.CompileRename("users", "accounts"))
}

func Test_SQLite_CompileCreate(t *testing.T) {
	g := NewSQLiteGrammar()

	tb := newTable("alpha", false)
	tb.Increments("id")
	tb.String("title", 120)
	tb.Integer("weight").Default(0)

	statements := g.CompileCreate(tb)
	require.Len(t, statements, 1)
	assert.Equal(
		t,
		`CREATE TABLE "alpha" ("id" INTEGER PRIMARY KEY AUTOINCREMENT, `+
			`"title" VARCHAR(120) NOT NULL, "weight" INTEGER NOT NULL DEFAULT 0)`,
		statements[0],
	)
}

func Test_SQLite_CompileAlter_SkipsUnsupportedCommands(t *testing.T) {
	g := NewSQLiteGrammar()

	tb := newTable("alpha", true)
	tb.Text("notes").Nullable()
	tb.Primary("id")
	tb.Foreign("user_id").References("id").On("users")
	tb.RenameColumn("title", "headline")

	statements := g.CompileAlter(tb)
	require.Len(t, statements, 2)
	assert.Equal(t, `ALTER TABLE "alpha" ADD COLUMN "notes" TEXT`, statements[0])
	assert.Equal(t, `ALTER TABLE "alpha" RENAME COLUMN "title" TO "headline"`, statements[1])
}

func Test_SQLite_DropAndRename(t *testing.T) {
	g := NewSQLiteGrammar()

	assert.Equal(t, `DROP TABLE "alpha"`, g.CompileDrop("alpha"))
	assert.Equal(t, `DROP TABLE IF EXISTS "alpha"`, g.CompileDropIfExists("alpha"))
	assert.Equal(t, `ALTER TABLE "alpha" RENAME TO "beta"`, g.CompileRename("alpha", "beta"))
}

func Test_Postgres_CompileCreate(t *testing.T) {
	g := NewPostgresGrammar()

	tb := newTable("users", false)
	tb.Increments("id")
	tb.String("email", 191).Unique()
	tb.Boolean("active").Default(true)

	statements := g.CompileCreate(tb)
	require.Len(t, statements, 2)

	assert.Equal(
		t,
		`CREATE TABLE "users" ("id" SERIAL PRIMARY KEY, "email" VARCHAR(191) NOT NULL, `+
			`"active" BOOLEAN NOT NULL DEFAULT TRUE)`,
		statements[0],
	)
	assert.Equal(t, `CREATE UNIQUE INDEX "users_email_unique" ON "users" ("email")`, statements[1])
}

func Test_Postgres_CompileAlter_DropConstraint(t *testing.T) {
	g := NewPostgresGrammar()

	tb := newTable("posts", true)
	tb.DropForeign("posts_user_id_foreign")

	statements := g.CompileAlter(tb)
	require.Len(t, statements, 1)
	assert.Equal(t, `ALTER TABLE "posts" DROP CONSTRAINT "posts_user_id_foreign"`, statements[0])
}

func Test_TableExistsQueries_UseDialectPlaceholders(t *testing.T) {
	assert.Contains(t, NewMySQLGrammar().TableExistsQuery(), "?")
	assert.Contains(t, NewSQLiteGrammar().TableExistsQuery(), "?")
	assert.Contains(t, NewPostgresGrammar().TableExistsQuery(), "$1")
}

func Test_GrammarFor(t *testing.T) {
	for driver, dialect := range map[string]string{
		"mysql":    "mysql",
		"sqlite3":  "sqlite",
		"postgres": "postgres",
	} {
		g, err := GrammarFor(driver)
		require.NoError(t, err)
		assert.Equal(t, dialect, g.Dialect())
	}

	_, err := GrammarFor("oracle")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedDriver))
}

func Test_EnumAndDecimalTypes(t *testing.T) {
	mysql := NewMySQLGrammar()

	tb := newTable("products", false)
	tb.Enum("state", []string{"draft", "live"})
	tb.Decimal("price", 8, 2)

	statements := mysql.CompileCreate(tb)
	require.Len(t, statements, 1)
	assert.Equal(
		t,
		"CREATE TABLE `products` (`state` ENUM('draft', 'live') NOT NULL, "+
			"`price` DECIMAL(8, 2) NOT NULL) ENGINE=InnoDB",
		statements[0],
	)
}
