package testmodels

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"gorm.io/gorm"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func ref(id uint) *uint {
	return &id
}

// Departments returns the department fixtures without managers.
func Departments() []Department {
	created := day(2018, time.January, 1)
	return []Department{
		{ID: 1, Title: "Engineering", Code: "ENG", CreatedAt: created},
		{ID: 2, Title: "Operations", Code: "OPS", CreatedAt: created},
		{ID: 3, Title: "Sales", Code: "SAL", CreatedAt: created},
	}
}

// Managers maps department ids to their manager's employee id.
func Managers() map[uint]uint {
	return map[uint]uint{1: 3, 2: 2}
}

// Employees returns the employee fixtures. Eve has no department.
func Employees() []Employee {
	return []Employee{
		{ID: 1, Name: "Alice Johnson", Email: "alice@example.com", Status: "active", Age: 34, HireDate: day(2020, time.January, 15), DepartmentID: ref(1)},
		{ID: 2, Name: "Bob Smith", Email: "bob@example.com", Status: "pending", Age: 28, HireDate: day(2021, time.March, 1), DepartmentID: ref(2)},
		{ID: 3, Name: "Carol White", Email: "carol@example.com", Status: "active", Age: 45, HireDate: day(2019, time.July, 20), DepartmentID: ref(1)},
		{ID: 4, Name: "Dave Brown", Email: "dave@example.com", Status: "inactive", Age: 52, HireDate: day(2018, time.November, 5), DepartmentID: ref(3)},
		{ID: 5, Name: "Eve Black", Email: "eve@example.com", Status: "active", Age: 23, HireDate: day(2023, time.February, 10)},
	}
}

// Projects returns the project fixtures.
func Projects() []Project {
	return []Project{
		{ID: 1, Name: "Apollo", Status: "active", Budget: 1000.5},
		{ID: 2, Name: "Zeus", Status: "planned", Budget: 250},
		{ID: 3, Name: "Hermes", Status: "active", Budget: 75},
	}
}

// Assignments maps employee ids to the ids of their projects.
func Assignments() map[uint][]uint {
	return map[uint][]uint{1: {1, 2}, 3: {1}, 4: {3}}
}

// Migrate creates the fixture tables with GORM. Models migrate one at a time
// because departments and employees reference each other.
func Migrate(db *gorm.DB) error {
	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Seed migrates the fixture models and inserts the fixtures with GORM.
func Seed(db *gorm.DB) error {
	if err := Migrate(db); err != nil {
		return err
	}

	departments := Departments()
	if err := db.Create(&departments).Error; err != nil {
		return fmt.Errorf("seed departments: %w", err)
	}
	employees := Employees()
	if err := db.Create(&employees).Error; err != nil {
		return fmt.Errorf("seed employees: %w", err)
	}
	projects := Projects()
	if err := db.Create(&projects).Error; err != nil {
		return fmt.Errorf("seed projects: %w", err)
	}

	for deptID, managerID := range Managers() {
		if err := db.Model(&Department{}).Where("id = ?", deptID).Update("manager_id", managerID).Error; err != nil {
			return fmt.Errorf("seed managers: %w", err)
		}
	}

	for empID, projectIDs := range Assignments() {
		assigned := make([]Project, 0, len(projectIDs))
		for _, id := range projectIDs {
			assigned = append(assigned, Project{ID: id})
		}
		if err := db.Model(&Employee{ID: empID}).Association("Projects").Append(&assigned); err != nil {
			return fmt.Errorf("seed assignments: %w", err)
		}
	}
	return nil
}

// MigrateBun creates the department, employee and project tables with Bun.
func MigrateBun(ctx context.Context, db *bun.DB) error {
	for _, model := range Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// SeedBun creates the fixture tables with Bun and inserts the fixtures.
// Project assignments are not modelled for Bun.
func SeedBun(ctx context.Context, db *bun.DB) error {
	if err := MigrateBun(ctx, db); err != nil {
		return err
	}

	departments := Departments()
	for i := range departments {
		if managerID, ok := Managers()[departments[i].ID]; ok {
			departments[i].ManagerID = ref(managerID)
		}
	}
	if _, err := db.NewInsert().Model(&departments).Exec(ctx); err != nil {
		return fmt.Errorf("seed departments: %w", err)
	}
	employees := Employees()
	if _, err := db.NewInsert().Model(&employees).Exec(ctx); err != nil {
		return fmt.Errorf("seed employees: %w", err)
	}
	projects := Projects()
	if _, err := db.NewInsert().Model(&projects).Exec(ctx); err != nil {
		return fmt.Errorf("seed projects: %w", err)
	}
	return nil
}
