package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述全局运行时行为，所有 Dispatcher 共享同一份参数。
type GlobalConfig struct {
	ListenPort      int      `mapstructure:"ListenPort"`
	LogLevel        string   `mapstructure:"LogLevel"`
	LogFilePath     string   `mapstructure:"LogFilePath"`
	LogMaxSize      int      `mapstructure:"LogMaxSize"`
	LogMaxBackups   int      `mapstructure:"LogMaxBackups"`
	LogCompress     bool     `mapstructure:"LogCompress"`
	StoragePath     string   `mapstructure:"StoragePath"`
	StorageDriver   string   `mapstructure:"StorageDriver"`
	ShutdownTimeout Duration `mapstructure:"ShutdownTimeout"`
}

// DispatcherConfig 决定单个 Dispatcher 实例的初始模块与访问策略。
type DispatcherConfig struct {
	Name       string `mapstructure:"Name"`
	Module     string `mapstructure:"Module"`
	AdminToken string `mapstructure:"AdminToken"`
	Policy     string `mapstructure:"Policy"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global      GlobalConfig       `mapstructure:",squash"`
	Dispatchers []DispatcherConfig `mapstructure:"Dispatcher"`
}

// PolicyLabel 输出规范化的策略名，供日志字段使用；空值落到默认策略。
func (d DispatcherConfig) PolicyLabel() string {
	if normalized := strings.ToLower(strings.TrimSpace(d.Policy)); normalized != "" {
		return normalized
	}
	return "separated"
}

// PolicyModes 返回所有 Dispatcher 的策略摘要，例如 bank:module-authorized。
func PolicyModes(dispatchers []DispatcherConfig) []string {
	if len(dispatchers) == 0 {
		return nil
	}
	result := make([]string, len(dispatchers))
	for i, d := range dispatchers {
		result[i] = fmt.Sprintf("%s:%s", d.Name, d.PolicyLabel())
	}
	return result
}
