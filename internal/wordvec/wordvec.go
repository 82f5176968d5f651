// Package wordvec provides the built-in word-embedding table used by the
// local word-average embedding provider. It holds a fixed, curated
// vocabulary of common English and software-engineering terms, each
// mapped to a deterministic 300-dimensional unit vector. Vectors are
// generated once at package initialization from a stable per-word seed
// (FNV-64a hash of the lower-cased word) so that runs are reproducible
// and the cache in internal/embedservice stays valid across restarts.
// Words outside the vocabulary contribute nothing to an embedding; text
// composed entirely of out-of-vocabulary tokens yields a zero vector
// (the documented degenerate case), not an error.
package wordvec

import (
	"hash/fnv"
	"math/rand"

	"github.com/doozMen/codesearch-mcp/internal/vectormath"
)

// Dimensions is the fixed width of every vector in the table.
const Dimensions = 300

var table map[string][]float32

func init() {
	table = make(map[string][]float32, len(vocabulary))
	for _, w := range vocabulary {
		table[w] = generate(w)
	}
}

// generate derives a deterministic unit vector for word from a stable
// hash-seeded PRNG, so the same word always maps to the same vector
// across processes and restarts.
func generate(word string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(word))
	seed := int64(h.Sum64())
	r := rand.New(rand.NewSource(seed))
	v := make([]float32, Dimensions)
	for i := range v {
		v[i] = r.Float32()*2 - 1
	}
	return vectormath.Normalize(v)
}

// Lookup returns the vector for word (expected already lower-cased) and
// whether it is present in the vocabulary.
func Lookup(word string) ([]float32, bool) {
	v, ok := table[word]
	return v, ok
}

// Size returns the number of words in the vocabulary.
func Size() int {
	return len(table)
}

// vocabulary is a curated set of common English words and software/code
// terms. It is intentionally finite: the word-average provider treats
// anything outside this list as out-of-vocabulary and skips it, rather
// than inventing a vector on demand, so the table's membership is itself
// part of the provider's observable behavior.
var vocabulary = []string{
	"a", "an", "the", "is", "are", "was", "were", "be", "been", "being",
	"and", "or", "not", "but", "if", "then", "else", "for", "while", "do",
	"this", "that", "these", "those", "it", "its", "of", "in", "on", "at",
	"to", "from", "with", "by", "as", "into", "onto", "over", "under",
	"user", "users", "account", "accounts", "email", "emails", "password",
	"passwords", "login", "logout", "register", "registration", "profile",
	"session", "sessions", "token", "tokens", "auth", "authentication",
	"authorization", "permission", "permissions", "role", "roles", "group",
	"groups", "policy", "policies", "credential", "credentials",
	"article", "articles", "post", "posts", "content", "comment",
	"comments", "blog", "page", "pages", "category", "categories", "tag",
	"tags", "title", "body", "author", "authors", "publish", "published",
	"draft", "feed", "rss",
	"function", "functions", "method", "methods", "class", "classes",
	"struct", "structs", "interface", "interfaces", "package", "packages",
	"module", "modules", "import", "imports", "export", "exports",
	"return", "returns", "public", "private", "protected", "internal",
	"static", "const", "constant", "constants", "variable", "variables",
	"field", "fields", "property", "properties", "parameter", "parameters",
	"argument", "arguments", "type", "types", "generic", "generics",
	"index", "indexes", "indices", "search", "query", "queries", "vector",
	"vectors", "embed", "embedding", "embeddings", "database", "databases",
	"cache", "caches", "cached", "caching", "file", "files", "path",
	"paths", "list", "lists", "map", "maps", "array", "arrays", "slice",
	"slices", "string", "strings", "error", "errors", "request",
	"requests", "response", "responses", "server", "servers", "client",
	"clients", "config", "configs", "configuration", "settings", "test",
	"tests", "testing", "data", "value", "values", "key", "keys", "name",
	"names", "identifier", "identifiers", "scope",
	"read", "write", "create", "update", "delete", "insert", "remove",
	"find", "match", "matches", "pattern", "patterns", "regex", "word",
	"words", "sentence", "document", "documents", "project", "projects",
	"repository", "repositories", "branch", "branches", "commit",
	"commits", "merge", "merged", "diff", "patch", "version", "versions",
	"release", "releases", "build", "builds", "compile", "compiled",
	"deploy", "deployed", "run", "running", "start", "started", "stop",
	"stopped", "restart", "status", "health", "metric", "metrics", "log",
	"logs", "logging", "trace", "tracing", "context", "component",
	"components", "service", "services", "layer", "layers", "api",
	"endpoint", "endpoints", "route", "routes", "middleware", "controller",
	"controllers", "model", "models", "view", "views", "template",
	"templates", "schema", "schemas", "column", "columns", "table",
	"tables", "row", "rows", "record", "records", "entity", "entities",
	"object", "objects", "instance", "instances", "factory", "builder",
	"adapter", "wrapper", "proxy", "decorator", "observer", "listener",
	"emitter", "publisher", "subscriber", "topic", "topics", "partition",
	"partitions", "shard", "shards", "replica", "replicas", "cluster",
	"node", "nodes", "host", "hosts", "address", "addresses", "url",
	"urls", "uri", "domain", "protocol", "header", "headers", "payload",
	"body", "param", "params", "option", "options", "flag", "flags",
	"default", "defaults", "variable", "closure", "callback", "callbacks",
	"promise", "promises", "future", "result", "results", "success",
	"failure", "failures", "exception", "exceptions", "panic", "recover",
	"defer", "goroutine", "goroutines", "channel", "channels", "select",
	"switch", "case", "loop", "loops", "iterate", "iteration", "recursive",
	"recursion", "algorithm", "algorithms", "complexity", "performance",
	"benchmark", "benchmarks", "profile", "profiling", "memory",
	"allocation", "pointer", "pointers", "reference", "references", "copy",
	"clone", "equal", "compare", "comparison", "sort", "sorted", "sorting",
	"binary", "linear", "tree", "trees", "graph", "graphs", "edge",
	"edges", "weight", "weights", "distance", "similarity", "cosine",
	"dot", "product", "norm", "matrix", "dimension", "dimensions",
	"scalar", "float", "integer", "boolean", "buffer", "buffers",
	"stream", "streams", "reader", "writer", "scanner", "encoder",
	"decoder", "encode", "decode", "encoding", "decoding", "compress",
	"compressed", "archive", "checksum", "signature", "certificate",
	"encryption", "decryption", "secret", "secrets", "cookie", "cookies",
	"jwt", "oauth", "directory", "directories", "folder", "folders",
	"extension", "extensions", "locale", "timezone", "date", "dates",
	"time", "times", "duration", "interval", "intervals", "schedule",
	"scheduled", "trigger", "triggered", "event", "events", "notification",
	"notifications", "alert", "alerts", "warning", "warnings", "info",
	"debug", "verbose", "quiet", "output", "input", "environment",
	"command", "commands", "shell", "script", "scripts", "executable",
	"library", "libraries", "dependency", "dependencies", "abstract",
	"concrete", "implementation", "inherit", "inherits", "extend",
	"extends", "override", "overload", "polymorphism", "encapsulation",
	"abstraction", "composition", "aggregation", "association",
	"inheritance", "queue", "queues", "worker", "workers", "job", "jobs",
	"task", "tasks", "priority", "concurrency", "concurrent", "parallel",
	"thread", "threads", "lock", "locks", "mutex", "atomic", "sync",
	"async", "await", "chunk", "chunks", "registry", "shard", "ranking",
	"relevance", "score", "scores", "dedup", "deduplicate", "project",
}
