package config

// 引入内置模块包触发注册，使 Validate 能够确认配置引用的模块真实存在。
import (
	_ "github.com/swap-hub/swap-hub/internal/behavior/counter"
	_ "github.com/swap-hub/swap-hub/internal/behavior/ledger"
)
