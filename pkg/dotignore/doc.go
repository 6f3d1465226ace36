// Package dotignore decides whether a path is excluded by rules written in
// the .gitignore pattern dialect.
//
// Rules are compiled once into an immutable RuleSet and then queried any
// number of times, possibly from several goroutines at once:
//
//	m, err := dotignore.New("node_modules/\n*.log\n!important.log\n")
//	if err != nil {
//		return err
//	}
//	m.Ignore("node_modules/find-up/index.js") // true
//	m.Ignore("important.log")                 // false
//
// Rules are scanned in source order and the last matching rule decides the
// verdict. A rule whose pattern contains a slash is matched against the whole
// path; any other rule is matched against each path segment. Note that this
// anchors patterns such as "build/" to the start of the path, which is
// stricter than Git.
package dotignore
