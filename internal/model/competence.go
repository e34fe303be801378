package model

// Competence 能力，对应 competences
type Competence struct {
	ID          int64  `gorm:"primaryKey"                                   json:"id"`
	Index       string `gorm:"column:index_code;type:varchar(50);not null"  json:"index"`
	Name        string `gorm:"type:varchar(200);not null"                   json:"name"`
	Description string `gorm:"type:varchar(1000);not null;default:''"       json:"description,omitempty"`

	// 关联
	Indicators        []Indicator        `gorm:"many2many:competence_indicators"                                             json:"indicators,omitempty"`
	ProfessionalRoles []ProfessionalRole `gorm:"many2many:competence_proles;joinForeignKey:CompetenceID;joinReferences:ProleID" json:"professional_roles,omitempty"`
}

// TableName 指定表名
func (Competence) TableName() string { return "competences" }

// ProfessionalRole 职业角色，对应 professional_roles
type ProfessionalRole struct {
	ID          int64  `gorm:"primaryKey"                                   json:"id"`
	Index       string `gorm:"column:index_code;type:varchar(50);not null"  json:"index"`
	Name        string `gorm:"type:varchar(200);not null"                   json:"name"`
	Description string `gorm:"type:varchar(1000);not null;default:''"       json:"description,omitempty"`

	// 关联
	Competences []Competence `gorm:"many2many:competence_proles;joinForeignKey:ProleID;joinReferences:CompetenceID" json:"competences,omitempty"`
	Groups      []Group      `gorm:"foreignKey:ProleID"                                                            json:"groups,omitempty"`
}

// TableName 指定表名
func (ProfessionalRole) TableName() string { return "professional_roles" }
