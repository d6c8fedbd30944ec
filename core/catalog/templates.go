// Package catalog - Built-in service templates
package catalog

import (
	"sync"

	"github.com/shopspring/decimal"

	"invoice-advisor/core/types"
)

func tpl(description, details string, minRate, maxRate int64) Template {
	return Template{
		Description: description,
		Details:     details,
		MinRate:     decimal.NewFromInt(minRate),
		MaxRate:     decimal.NewFromInt(maxRate),
	}
}

// RegisterDefaults populates the catalog with the built-in templates
func RegisterDefaults(c *Catalog) {
	c.Register(Entry{
		Category: types.CategoryAIMLSolutions,
		Templates: []Template{
			tpl("Machine Learning Model Development", "Feature engineering, training and evaluation", 180, 280),
			tpl("Data Pipeline Engineering", "Ingestion, cleaning and labelling pipelines", 150, 220),
			tpl("Model Deployment & MLOps", "Serving, monitoring and retraining workflows", 160, 240),
		},
		Notes: "Includes model development and implementation.",
	})
	c.Register(Entry{
		Category: types.CategoryCloudServices,
		Templates: []Template{
			tpl("AWS Infrastructure Setup", "", 100, 150),
			tpl("Azure Migration Services", "", 120, 180),
			tpl("Cloud Security Configuration", "", 140, 200),
			tpl("Kubernetes Cluster Management", "", 150, 220),
		},
		Notes: "Includes architecture design and security configuration.",
	})
	c.Register(Entry{
		Category: types.CategoryCybersecurity,
		Templates: []Template{
			tpl("Security Audit & Assessment", "", 200, 300),
			tpl("Penetration Testing", "", 180, 280),
			tpl("Security Policy Development", "", 150, 220),
			tpl("Incident Response Planning", "", 180, 250),
		},
		Notes: "Includes security assessment and compliance documentation.",
	})
	c.Register(Entry{
		Category: types.CategoryDataAnalytics,
		Templates: []Template{
			tpl("Data Warehouse Design", "Dimensional modelling and ETL", 140, 200),
			tpl("Dashboard & Report Development", "", 110, 160),
			tpl("Statistical Analysis", "", 130, 190),
		},
		Notes: "Includes data analysis and visualization reports.",
	})
	c.Register(Entry{
		Category: types.CategoryDatabaseManagement,
		Templates: []Template{
			tpl("Database Design & Optimization", "", 160, 220),
			tpl("Database Migration", "Schema and data migration with cutover plan", 140, 200),
			tpl("Backup & Recovery Setup", "", 110, 160),
		},
		Notes: "Includes performance tuning and backup verification.",
	})
	c.Register(Entry{
		Category: types.CategoryDevOpsServices,
		Templates: []Template{
			tpl("CI/CD Pipeline Setup", "", 130, 190),
			tpl("Infrastructure as Code", "", 140, 200),
			tpl("Monitoring & Alerting Setup", "", 120, 170),
		},
		Notes: "Includes CI/CD pipeline setup and automation.",
	})
	c.Register(Entry{
		Category: types.CategoryITConsulting,
		Templates: []Template{
			tpl("Technology Strategy Planning", "", 180, 250),
			tpl("System Architecture Review", "", 160, 220),
			tpl("Digital Transformation Consulting", "", 200, 300),
			tpl("IT Infrastructure Assessment", "", 150, 200),
		},
		Notes: "Professional consulting services with detailed reports.",
	})
	c.Register(Entry{
		Category: types.CategoryMobileDevelopment,
		Templates: []Template{
			tpl("iOS Application Development", "", 130, 190),
			tpl("Android Application Development", "", 120, 180),
			tpl("Cross-Platform App Development", "", 120, 170),
		},
		Notes: "Includes app store submission support and device testing.",
	})
	c.Register(Entry{
		Category: types.CategoryNetworkInfrastructure,
		Templates: []Template{
			tpl("Network Design & Planning", "", 130, 190),
			tpl("Firewall & VPN Configuration", "", 120, 180),
			tpl("Network Performance Audit", "", 110, 160),
		},
		Notes: "Includes network diagrams and configuration records.",
	})
	c.Register(Entry{
		Category: types.CategorySoftwareDevelopment,
		Templates: []Template{
			tpl("Custom API Development", "", 150, 200),
			tpl("Frontend Development", "", 120, 180),
			tpl("Backend System Architecture", "", 180, 250),
			tpl("Database Design & Optimization", "", 160, 220),
		},
		Notes: "Includes code documentation, testing, and deployment support.",
	})
	c.Register(Entry{
		Category: types.CategorySystemIntegration,
		Templates: []Template{
			tpl("Integration Architecture", "", 160, 230),
			tpl("API & Middleware Integration", "", 140, 200),
			tpl("Integration Testing", "", 110, 160),
		},
		Notes: "Includes system design and integration testing.",
	})
	c.Register(Entry{
		Category: types.CategoryWebDevelopment,
		Templates: []Template{
			tpl("Website Design & Development", "", 100, 150),
			tpl("E-commerce Platform Setup", "", 110, 170),
			tpl("Web Performance Optimization", "", 100, 160),
		},
	})
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the validated built-in catalog. It is built once and
// must not be modified.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c := NewCatalog()
		RegisterDefaults(c)
		c.MustValidate()
		defaultCatalog = c
	})
	return defaultCatalog
}
