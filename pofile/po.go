// Package pofile reads and writes the subset of the GNU gettext PO format
// used by the correction store: singular entries with comments, flags and
// an optional msgctxt. Plural forms and obsolete entries are skipped on
// read and never written.
package pofile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Entry is a single message.
type Entry struct {
	// TranslatorComments are "# " lines.
	TranslatorComments []string
	// ExtractedComments are "#." lines.
	ExtractedComments []string
	// Flags are the comma-separated values of "#," lines.
	Flags []string

	MsgCtxt string
	MsgID   string
	MsgStr  string
}

// HasFlag checks if a specific flag is present.
func (e *Entry) HasFlag(flag string) bool {
	for _, f := range e.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// File is a parsed PO file.
type File struct {
	// Header is the metadata entry (msgid "").
	Header *Entry
	// Entries are the messages in file order.
	Entries []*Entry
}

// NewFile creates an empty file with an empty header.
func NewFile() *File {
	return &File{Header: &Entry{}}
}

// HeaderField returns a header field value by name (case-insensitive).
func (f *File) HeaderField(name string) string {
	if f.Header == nil {
		return ""
	}
	for _, line := range strings.Split(f.Header.MsgStr, "\n") {
		key, val, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), name) {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

// SetHeaderField sets or appends a header field.
func (f *File) SetHeaderField(name, value string) {
	if f.Header == nil {
		f.Header = &Entry{}
	}
	var lines []string
	if f.Header.MsgStr != "" {
		lines = strings.Split(strings.TrimSuffix(f.Header.MsgStr, "\n"), "\n")
	}
	replaced := false
	for i, line := range lines {
		key, _, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), name) {
			lines[i] = name + ": " + value
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, name+": "+value)
	}
	f.Header.MsgStr = strings.Join(lines, "\n") + "\n"
}

// Find returns the entry with the given context and msgid, or nil.
func (f *File) Find(msgctxt, msgid string) *Entry {
	for _, e := range f.Entries {
		if e.MsgCtxt == msgctxt && e.MsgID == msgid {
			return e
		}
	}
	return nil
}

// Upsert replaces the entry with the same context and msgid, or appends e.
// It reports whether an existing entry was replaced.
func (f *File) Upsert(e *Entry) bool {
	for i, cur := range f.Entries {
		if cur.MsgCtxt == e.MsgCtxt && cur.MsgID == e.MsgID {
			f.Entries[i] = e
			return true
		}
	}
	f.Entries = append(f.Entries, e)
	return false
}

// MakeHeader creates a header entry for a correction file.
func MakeHeader(project, sourceLang, targetLang string, now time.Time) *Entry {
	stamp := now.UTC().Format("2006-01-02 15:04+0000")
	return &Entry{
		MsgStr: fmt.Sprintf(
			"Project-Id-Version: %s\n"+
				"PO-Revision-Date: %s\n"+
				"Source-Language: %s\n"+
				"Language: %s\n"+
				"MIME-Version: 1.0\n"+
				"Content-Type: text/plain; charset=UTF-8\n"+
				"Content-Transfer-Encoding: 8bit\n",
			project, stamp, sourceLang, targetLang,
		),
	}
}

// ---------------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------------

// Parse reads a PO file.
func Parse(r io.Reader) (*File, error) {
	f := &File{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		cur       *Entry
		field     *string
		skip      bool
		lineNum   int
		sawHeader bool
	)

	flush := func() {
		if cur != nil && !skip {
			if cur.MsgID == "" && cur.MsgCtxt == "" && !sawHeader {
				f.Header = cur
				sawHeader = true
			} else {
				f.Entries = append(f.Entries, cur)
			}
		}
		cur, field, skip = nil, nil, false
	}

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if cur == nil {
			cur = &Entry{}
		}

		switch {
		case strings.HasPrefix(line, "#~"):
			skip = true
		case strings.HasPrefix(line, "#,"):
			for _, flag := range strings.Split(line[2:], ",") {
				if flag = strings.TrimSpace(flag); flag != "" {
					cur.Flags = append(cur.Flags, flag)
				}
			}
		case strings.HasPrefix(line, "#."):
			cur.ExtractedComments = append(cur.ExtractedComments, strings.TrimSpace(line[2:]))
		case strings.HasPrefix(line, "#:"), strings.HasPrefix(line, "#|"):
			// references and previous msgids carry nothing we store
		case strings.HasPrefix(line, "#"):
			cur.TranslatorComments = append(cur.TranslatorComments, strings.TrimPrefix(line[1:], " "))
		case strings.HasPrefix(line, "msgctxt "):
			cur.MsgCtxt = unquote(line[len("msgctxt "):])
			field = &cur.MsgCtxt
		case strings.HasPrefix(line, "msgid_plural "), strings.HasPrefix(line, "msgstr["):
			skip = true
			field = nil
		case strings.HasPrefix(line, "msgid "):
			cur.MsgID = unquote(line[len("msgid "):])
			field = &cur.MsgID
		case strings.HasPrefix(line, "msgstr "):
			cur.MsgStr = unquote(line[len("msgstr "):])
			field = &cur.MsgStr
		case strings.HasPrefix(line, `"`):
			if field != nil {
				*field += unquote(line)
			}
		default:
			return nil, fmt.Errorf("line %d: unexpected content: %s", lineNum, line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading PO file: %w", err)
	}
	if f.Header == nil {
		f.Header = &Entry{}
	}
	return f, nil
}

// ParseFile reads a PO file from disk.
func ParseFile(path string) (*File, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return Parse(in)
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Write writes the file.
func (f *File) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	first := true
	if f.Header != nil {
		writeEntry(bw, f.Header)
		first = false
	}
	for _, e := range f.Entries {
		if !first {
			bw.WriteString("\n")
		}
		writeEntry(bw, e)
		first = false
	}
	return bw.Flush()
}

// WriteFile writes the file to path, replacing it atomically.
func (f *File) WriteFile(path string) error {
	tmp := path + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if err := f.Write(out); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeEntry(w *bufio.Writer, e *Entry) {
	for _, c := range e.TranslatorComments {
		for _, line := range commentLines(c) {
			fmt.Fprintf(w, "# %s\n", line)
		}
	}
	for _, c := range e.ExtractedComments {
		for _, line := range commentLines(c) {
			fmt.Fprintf(w, "#. %s\n", line)
		}
	}
	if len(e.Flags) > 0 {
		fmt.Fprintf(w, "#, %s\n", strings.Join(e.Flags, ", "))
	}
	if e.MsgCtxt != "" {
		writeField(w, "msgctxt", e.MsgCtxt)
	}
	writeField(w, "msgid", e.MsgID)
	writeField(w, "msgstr", e.MsgStr)
}

// commentLines splits a comment into one line per "\n". Comments have no
// escape syntax, so a multi-line comment comes back from Parse as several.
func commentLines(c string) []string {
	c = strings.ReplaceAll(c, "\r\n", "\n")
	return strings.Split(strings.ReplaceAll(c, "\r", "\n"), "\n")
}

// writeField writes a keyword and its value, splitting multi-line values
// after each "\n" the way msgcat does.
func writeField(w *bufio.Writer, keyword, value string) {
	if !strings.Contains(value, "\n") {
		fmt.Fprintf(w, "%s %s\n", keyword, quote(value))
		return
	}
	fmt.Fprintf(w, "%s \"\"\n", keyword)
	for _, part := range strings.SplitAfter(value, "\n") {
		if part != "" {
			fmt.Fprintf(w, "%s\n", quote(part))
		}
	}
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

func quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\', '"':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
