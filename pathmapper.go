package streamfs

import (
	"path"
	"strings"

	"go.uber.org/zap"
)

// PathMapper rewrites paths that cross a file system boundary.
//
// OnPathParameter is called for each path argument on the way in, with the
// name of the operation and of the parameter. OnPathResult is called for
// each path returned by the operation on the way out. Implementations should
// be pure functions of their arguments.
type PathMapper interface {
	OnPathParameter(p, functionName, parameterName string) string
	OnPathResult(p, functionName string) string
}

// PathMapperFuncs adapts a pair of functions to PathMapper. A nil function
// leaves its paths unchanged.
type PathMapperFuncs struct {
	Parameter func(p, functionName, parameterName string) string
	Result    func(p, functionName string) string
}

func (f PathMapperFuncs) OnPathParameter(p, functionName, parameterName string) string {
	if f.Parameter == nil {
		return p
	}
	return f.Parameter(p, functionName, parameterName)
}

func (f PathMapperFuncs) OnPathResult(p, functionName string) string {
	if f.Result == nil {
		return p
	}
	return f.Result(p, functionName)
}

// IdentityMapper leaves every path unchanged
var IdentityMapper PathMapper = PathMapperFuncs{}

// Chain returns a mapper that applies outer and inner like nested layers.
// Parameters pass through outer first and then inner; results pass through
// inner first and then outer.
func Chain(outer, inner PathMapper) PathMapper {
	return chained{outer: outer, inner: inner}
}

// ChainAll chains mappers from outermost to innermost. With no mappers it
// returns IdentityMapper.
func ChainAll(mappers ...PathMapper) PathMapper {
	if len(mappers) == 0 {
		return IdentityMapper
	}
	m := mappers[0]
	for _, next := range mappers[1:] {
		m = Chain(m, next)
	}
	return m
}

type chained struct {
	outer PathMapper
	inner PathMapper
}

func (c chained) OnPathParameter(p, functionName, parameterName string) string {
	return c.inner.OnPathParameter(
		c.outer.OnPathParameter(p, functionName, parameterName),
		functionName,
		parameterName,
	)
}

func (c chained) OnPathResult(p, functionName string) string {
	return c.outer.OnPathResult(
		c.inner.OnPathResult(p, functionName),
		functionName,
	)
}

// ChrootMapper confines paths under root. Parameters are joined onto root
// and results have root stripped, so callers see "/" as root.
func ChrootMapper(root string) PathMapper {
	root = path.Clean("/" + root)
	return PathMapperFuncs{
		Parameter: func(p, _, _ string) string {
			// Clean against "/" first so ".." cannot climb above root
			return path.Join(root, path.Clean("/"+p))
		},
		Result: func(p, _ string) string {
			if root == "/" {
				return p
			}
			if p == root {
				return "/"
			}
			if rest, ok := strings.CutPrefix(p, root+"/"); ok {
				return "/" + rest
			}
			return p
		},
	}
}

// CleanMapper normalizes paths with path.Clean in both directions
func CleanMapper() PathMapper {
	return PathMapperFuncs{
		Parameter: func(p, _, _ string) string { return path.Clean(p) },
		Result:    func(p, _ string) string { return path.Clean(p) },
	}
}

// AuditMapper logs every path it sees at debug level and returns it unchanged
func AuditMapper(logger *zap.Logger) PathMapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return PathMapperFuncs{
		Parameter: func(p, functionName, parameterName string) string {
			logger.Debug("path parameter",
				zap.String("op", functionName),
				zap.String("param", parameterName),
				zap.String("path", p),
			)
			return p
		},
		Result: func(p, functionName string) string {
			logger.Debug("path result",
				zap.String("op", functionName),
				zap.String("path", p),
			)
			return p
		},
	}
}
