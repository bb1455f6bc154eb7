package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			ListenPort:      8080,
			LogLevel:        "info",
			StoragePath:     "./data",
			StorageDriver:   "file",
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Dispatchers: []DispatcherConfig{
			{Name: "counting", Module: "counter@1", AdminToken: "secret"},
		},
	}
}

func TestLoadWithDefaults(t *testing.T) {
	cfgPath := testConfigPath(t, "valid.toml")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.ListenPort != 8080 {
		t.Fatalf("ListenPort 应当被解析")
	}
	if cfg.Global.StorageDriver != "file" {
		t.Fatalf("StorageDriver 应该自动填充默认值")
	}
	if cfg.Global.ShutdownTimeout.DurationValue() != 10*time.Second {
		t.Fatalf("ShutdownTimeout 应该自动填充默认值")
	}
	if !strings.HasSuffix(cfg.Global.StoragePath, "data") {
		t.Fatalf("StoragePath 应该被转换为绝对路径: %s", cfg.Global.StoragePath)
	}
	if len(cfg.Dispatchers) != 2 {
		t.Fatalf("应解析出 2 个 Dispatcher，实际 %d", len(cfg.Dispatchers))
	}
	if cfg.Dispatchers[1].PolicyLabel() != "module-authorized" {
		t.Fatalf("策略未解析: %s", cfg.Dispatchers[1].Policy)
	}
	if cfg.Dispatchers[0].PolicyLabel() != "separated" {
		t.Fatalf("未填写策略应落到默认值: %s", cfg.Dispatchers[0].PolicyLabel())
	}
}

func TestValidateRejectsMissingAdminToken(t *testing.T) {
	cfgPath := testConfigPath(t, "missing.toml")

	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("缺少 AdminToken 的配置应返回错误")
	}
}

func TestValidateEnforcesListenPortRange(t *testing.T) {
	cfg := validConfig()
	cfg.Global.ListenPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatalf("ListenPort 超出范围应当报错")
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Global.StorageDriver = "etcd"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("未知存储驱动应当报错")
	}
}

func TestValidateRejectsUnregisteredModule(t *testing.T) {
	cfg := validConfig()
	cfg.Dispatchers[0].Module = "vault@9"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("未注册模块应当报错")
	}
}

func TestValidateRejectsDuplicateNames(t *testing.T) {
	cfg := validConfig()
	cfg.Dispatchers = append(cfg.Dispatchers, cfg.Dispatchers[0])
	if err := cfg.Validate(); err == nil {
		t.Fatalf("重复的 Dispatcher 名称应当报错")
	}
}

func TestValidateRejectsUnsafeNames(t *testing.T) {
	testCases := []struct {
		name      string
		value     string
		shouldErr bool
	}{
		{"plain ok", "counting", false},
		{"mixed ok", "Bank_01", false},
		{"slash", "a/b", true},
		{"dots", "..", true},
		{"space", "a b", true},
		{"leading dash", "-x", true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Dispatchers[0].Name = tc.value
			err := cfg.Validate()
			if tc.shouldErr && err == nil {
				t.Fatalf("名称 %q 应当被拒绝", tc.value)
			}
			if !tc.shouldErr && err != nil {
				t.Fatalf("名称 %q 被误拒: %v", tc.value, err)
			}
		})
	}
}

func TestValidateRejectsUnknownPolicy(t *testing.T) {
	cfg := validConfig()
	cfg.Dispatchers[0].Policy = "open"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("未知策略应当报错")
	}
}

func TestPolicyModes(t *testing.T) {
	modes := PolicyModes([]DispatcherConfig{
		{Name: "counting"},
		{Name: "bank", Policy: "module-authorized"},
	})
	if len(modes) != 2 || modes[0] != "counting:separated" || modes[1] != "bank:module-authorized" {
		t.Fatalf("策略摘要不符合预期: %v", modes)
	}
}

func TestBuildDispatcherRuntime(t *testing.T) {
	rt, err := BuildDispatcherRuntime(DispatcherConfig{
		Name: "bank", Module: "ledger@2", AdminToken: "secret", Policy: "module-authorized",
	})
	if err != nil {
		t.Fatalf("BuildDispatcherRuntime 返回错误: %v", err)
	}
	if rt.Module.Metadata().Identity() != "ledger@2" {
		t.Fatalf("模块解析错误: %s", rt.Module.Metadata().Identity())
	}
	if string(rt.Policy) != "module-authorized" {
		t.Fatalf("策略解析错误: %s", rt.Policy)
	}

	if _, err := BuildDispatcherRuntime(DispatcherConfig{Name: "x", Module: "nope@1"}); err == nil {
		t.Fatalf("未注册模块应当报错")
	}
}
