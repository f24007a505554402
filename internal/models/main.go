package models

// ModelRegistry lists every model the schema migrator should manage.
var ModelRegistry = []interface{}{
	&WaitlistEntry{},
}
