package testmodels

import "time"

// Department represents a company department
type Department struct {
	ID        uint      `json:"id" gorm:"primaryKey" bun:"id,pk,autoincrement"`
	Title     string    `json:"title" bun:"title"`
	Code      string    `json:"code" gorm:"uniqueIndex" bun:"code"`
	ManagerID *uint     `json:"manager_id" bun:"manager_id"`
	CreatedAt time.Time `json:"created_at" bun:"created_at"`

	// Relations
	Manager   *Employee  `json:"manager,omitempty" gorm:"foreignKey:ManagerID;references:ID" bun:"rel:belongs-to,join:manager_id=id"`
	Employees []Employee `json:"employees,omitempty" gorm:"foreignKey:DepartmentID;references:ID" bun:"rel:has-many,join:id=department_id"`
}

func (Department) TableName() string {
	return "departments"
}

// Employee represents a company employee
type Employee struct {
	ID           uint      `json:"id" gorm:"primaryKey" bun:"id,pk,autoincrement"`
	Name         string    `json:"name" bun:"name"`
	Email        string    `json:"email" gorm:"uniqueIndex" bun:"email"`
	Status       string    `json:"status" bun:"status"`
	Age          int       `json:"age" bun:"age"`
	HireDate     time.Time `json:"hire_date" bun:"hire_date"`
	DepartmentID *uint     `json:"department_id" bun:"department_id"`

	// Relations
	Department *Department `json:"department,omitempty" gorm:"foreignKey:DepartmentID;references:ID" bun:"rel:belongs-to,join:department_id=id"`
	Projects   []Project   `json:"projects,omitempty" gorm:"many2many:employee_projects;" bun:"-"`
}

func (Employee) TableName() string {
	return "employees"
}

// Project represents a company project
type Project struct {
	ID     uint    `json:"id" gorm:"primaryKey" bun:"id,pk,autoincrement"`
	Name   string  `json:"name" bun:"name"`
	Status string  `json:"status" bun:"status"`
	Budget float64 `json:"budget" bun:"budget"`
}

func (Project) TableName() string {
	return "projects"
}

// Models lists every fixture model in migration order.
func Models() []interface{} {
	return []interface{}{&Department{}, &Employee{}, &Project{}}
}
