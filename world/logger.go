package world

import "github.com/sirupsen/logrus"

// log 世界模块的日志记录器
var log = logrus.WithField("module", "world")
