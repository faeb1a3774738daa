package database

import (
	"gorm.io/gorm/schema"
)

// NamingStrategy называет внешние ключи по схеме fk_<таблица>_<колонка>_<связанная таблица>,
// например fk_reviews_customer_id_customers. Остальное берется из стандартной стратегии gorm
type NamingStrategy struct {
	schema.NamingStrategy
}

func (ns NamingStrategy) RelationshipFKName(rel schema.Relationship) string {
	if len(rel.References) == 0 {
		return ns.NamingStrategy.RelationshipFKName(rel)
	}

	ref := rel.References[0]
	if ref.ForeignKey == nil || ref.PrimaryKey == nil || ref.ForeignKey.Schema == nil || ref.PrimaryKey.Schema == nil {
		return ns.NamingStrategy.RelationshipFKName(rel)
	}

	return ns.formatName("fk", ref.ForeignKey.Schema.Table, ref.ForeignKey.DBName, ref.PrimaryKey.Schema.Table)
}

func (ns NamingStrategy) formatName(prefix string, parts ...string) string {
	name := prefix
	for _, p := range parts {
		name += "_" + p
	}
	return name
}
