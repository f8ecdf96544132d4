package api

// HealthPath is the HTTP health endpoint of the server.
const HealthPath = "/api/v1/health"

// Статусы health check
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Database string `json:"database,omitempty"`
	Clients  int    `json:"clients"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
