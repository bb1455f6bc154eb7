package integration

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/swap-hub/swap-hub/internal/config"
	"github.com/swap-hub/swap-hub/internal/server"
	"github.com/swap-hub/swap-hub/internal/server/routes"
	"github.com/swap-hub/swap-hub/internal/store"
)

// stack 是一次完整服务装配：存储后端 + Dispatcher 注册表 + Fiber 应用。
type stack struct {
	app     *fiber.App
	backend store.Backend
}

// newStack 按启动流程装配服务：driver/dir 指定存储后端，dispatchers 对应
// config.toml 中的 [[Dispatcher]] 条目。
func newStack(t *testing.T, driver, dir string, dispatchers ...config.DispatcherConfig) *stack {
	t.Helper()

	backend, err := store.Open(driver, dir)
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{Dispatchers: dispatchers}
	registry, err := server.NewRegistry(context.Background(), cfg, backend, logger)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}

	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Registry:   registry,
		ListenPort: 5000,
	})
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	routes.RegisterDispatchRoutes(app, registry, logger)
	routes.RegisterModuleRoutes(app)
	routes.RegisterDispatcherRoutes(app, registry)

	return &stack{app: app, backend: backend}
}

func (s *stack) post(t *testing.T, path, caller string, body []byte) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	if caller != "" {
		req.Header.Set(server.HeaderCallerToken, caller)
	}
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	payload, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp.StatusCode, payload
}

func (s *stack) get(t *testing.T, path string) (int, []byte) {
	t.Helper()
	resp, err := s.app.Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	payload, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp.StatusCode, payload
}

func mustPost(t *testing.T, s *stack, path, caller string, body []byte) []byte {
	t.Helper()
	status, payload := s.post(t, path, caller, body)
	if status != fiber.StatusOK {
		t.Fatalf("POST %s returned %d (body=%s)", path, status, payload)
	}
	return payload
}
