package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// DispatchFields 提供 dispatcher/模块/操作字段，供请求路由日志复用。
func DispatchFields(dispatcher, module, sel, callerClass string) logrus.Fields {
	return logrus.Fields{
		"dispatcher":   dispatcher,
		"module":       module,
		"selector":     sel,
		"caller_class": callerClass,
	}
}
