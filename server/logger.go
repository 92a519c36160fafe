package server

import "github.com/sirupsen/logrus"

// log 会话层的日志记录器
var log = logrus.WithField("module", "server")
