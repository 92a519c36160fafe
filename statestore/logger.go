package statestore

import "github.com/sirupsen/logrus"

// log 状态存储模块的日志记录器
var log = logrus.WithField("module", "statestore")
