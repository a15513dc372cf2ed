// Package fuzztests houses Go fuzz harnesses for the builder scripts: decoding arbitrary bytes
// as a script and replaying the decoded calls against the builder. A script may be rejected
// with an error, but it must never panic or hang, and whatever builds must validate.
package fuzztests
