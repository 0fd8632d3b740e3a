package profile

// DefaultProfiles returns the built-in language table. The calling system may
// extend or override it through configuration.
func DefaultProfiles() []LanguageProfile {
	return []LanguageProfile{
		{
			ID:               "c",
			Name:             "C (GCC)",
			SourceFile:       "main.c",
			BinaryFile:       "main",
			CompileEnabled:   true,
			CompileCmdTpl:    "gcc -O2 -std=c11 {src} -o {bin} -lm",
			RunCmdTpl:        "{bin}",
			TimeMultiplier:   1,
			MemoryMultiplier: 1,
		},
		{
			ID:               "cpp",
			Name:             "C++ (G++)",
			SourceFile:       "main.cpp",
			BinaryFile:       "main",
			CompileEnabled:   true,
			CompileCmdTpl:    "g++ -O2 -std=c++17 {src} -o {bin}",
			RunCmdTpl:        "{bin}",
			TimeMultiplier:   1,
			MemoryMultiplier: 1,
		},
		{
			ID:               "java",
			Name:             "Java (OpenJDK)",
			SourceFile:       "Main.java",
			BinaryFile:       "Main.class",
			CompileEnabled:   true,
			CompileCmdTpl:    "javac -encoding UTF-8 {src}",
			RunCmdTpl:        "java -XX:+UseSerialGC -Xss64m Main",
			TimeMultiplier:   2,
			MemoryMultiplier: 2,
		},
		{
			ID:               "python",
			Name:             "Python 3",
			SourceFile:       "main.py",
			CompileEnabled:   false,
			RunCmdTpl:        "python3 {src}",
			Env:              []string{"PYTHONIOENCODING=utf-8"},
			TimeMultiplier:   3,
			MemoryMultiplier: 2,
		},
		{
			ID:               "go",
			Name:             "Go",
			SourceFile:       "main.go",
			BinaryFile:       "main",
			CompileEnabled:   true,
			CompileCmdTpl:    "go build -o {bin} {src}",
			RunCmdTpl:        "{bin}",
			Env:              []string{"GOCACHE=/tmp/gocache", "CGO_ENABLED=0"},
			TimeMultiplier:   1.5,
			MemoryMultiplier: 1.5,
		},
	}
}
