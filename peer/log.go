package peer

import (
	"github.com/btcp2p/btcp2p/infrastructure/logger"
)

var log, _ = logger.Get(logger.SubsystemTags.PEER)
