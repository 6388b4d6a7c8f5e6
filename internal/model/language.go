package model

// Language is the display name of a supported programming language, exactly
// as it is stored on a snippet and shown in the language picker.
type Language string

const (
	JavaScript Language = "JavaScript"
	TypeScript Language = "TypeScript"
	Python     Language = "Python"
	Java       Language = "Java"
	CPP        Language = "C++"
	CSharp     Language = "C#"
	Go         Language = "Go"
	Rust       Language = "Rust"
	HTML       Language = "HTML"
	CSS        Language = "CSS"
)

// Languages lists every supported language in picker order.
var Languages = []Language{
	JavaScript, TypeScript, Python, Java, CPP, CSharp, Go, Rust, HTML, CSS,
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	for _, known := range Languages {
		if l == known {
			return true
		}
	}
	return false
}
