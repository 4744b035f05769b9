package logging

// Convenience helpers so call sites read as logging.Executor(...) instead of
// logging.Get(logging.CategoryExecutor).Info(...).

// Schema logs at info level to the schema category.
func Schema(format string, args ...interface{}) { Get(CategorySchema).Info(format, args...) }

// SchemaDebug logs at debug level to the schema category.
func SchemaDebug(format string, args ...interface{}) { Get(CategorySchema).Debug(format, args...) }

// Intent logs at info level to the intent category.
func Intent(format string, args ...interface{}) { Get(CategoryIntent).Info(format, args...) }

// IntentDebug logs at debug level to the intent category.
func IntentDebug(format string, args ...interface{}) { Get(CategoryIntent).Debug(format, args...) }

// IntentWarn logs at warn level to the intent category.
func IntentWarn(format string, args ...interface{}) { Get(CategoryIntent).Warn(format, args...) }

// Oracle logs at info level to the oracle category.
func Oracle(format string, args ...interface{}) { Get(CategoryOracle).Info(format, args...) }

// OracleDebug logs at debug level to the oracle category.
func OracleDebug(format string, args ...interface{}) { Get(CategoryOracle).Debug(format, args...) }

// Executor logs at info level to the executor category.
func Executor(format string, args ...interface{}) { Get(CategoryExecutor).Info(format, args...) }

// ExecutorDebug logs at debug level to the executor category.
func ExecutorDebug(format string, args ...interface{}) { Get(CategoryExecutor).Debug(format, args...) }

// ExecutorWarn logs at warn level to the executor category.
func ExecutorWarn(format string, args ...interface{}) { Get(CategoryExecutor).Warn(format, args...) }

// Confirm logs at info level to the confirm category.
func Confirm(format string, args ...interface{}) { Get(CategoryConfirm).Info(format, args...) }

// ConfirmDebug logs at debug level to the confirm category.
func ConfirmDebug(format string, args ...interface{}) { Get(CategoryConfirm).Debug(format, args...) }

// Store logs at info level to the store category.
func Store(format string, args ...interface{}) { Get(CategoryStore).Info(format, args...) }

// StoreDebug logs at debug level to the store category.
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }

// Mirror logs at info level to the mirror category.
func Mirror(format string, args ...interface{}) { Get(CategoryMirror).Info(format, args...) }

// MirrorWarn logs at warn level to the mirror category.
func MirrorWarn(format string, args ...interface{}) { Get(CategoryMirror).Warn(format, args...) }

// Sandbox logs at info level to the sandbox category.
func Sandbox(format string, args ...interface{}) { Get(CategorySandbox).Info(format, args...) }

// SandboxDebug logs at debug level to the sandbox category.
func SandboxDebug(format string, args ...interface{}) { Get(CategorySandbox).Debug(format, args...) }
