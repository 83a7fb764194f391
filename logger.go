package pagesnap

import "github.com/unkn0wn-root/pagesnap/store"

// Fields is a minimal structured field map for logs.
type Fields = store.Fields

// Logger is a tiny leveled logger. Provide an adapter around your logging stack.
// If Logger is nil in Options, logging is disabled.
type Logger = store.Logger

type NopLogger = store.NopLogger
