// Package lok drives LibreOffice in-process through the
// LibreOfficeKit C API, without cgo.
//
// The kit library is loaded with dlopen and every call goes through
// LibreOffice's function pointer table, so the package works against
// whatever LibreOffice build is installed rather than the one it was
// compiled against. Functions added in newer LibreOffice releases are
// capability gated: calling one against an older installation fails
// with a missing-function error naming the release that added it.
//
// # Architecture Overview
//
// The module is organized into a small set of packages:
//
//	libreofficekit/      Root package with the Office and Document handles
//	├── sys/             Raw function table access over purego
//	├── urls/            Document URL normalization
//	├── install/         LibreOffice installation discovery
//	├── errors/          Structured error types
//	├── loktest/         In-process fake engine for tests
//	└── cmd/lokonvert/   Document conversion command
//
// # Quick Start
//
// Convert a document to PDF:
//
//	path, err := install.Discover()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	office, err := lok.New(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer office.Close()
//
//	input, _ := urls.FromRelativePath("report.docx")
//	output, _ := urls.FromAbsolutePath("/tmp/report.pdf")
//
//	doc, err := office.LoadDocument(input)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer doc.Close()
//
//	if err := doc.SaveAs(output, "pdf", ""); err != nil {
//	    log.Fatal(err)
//	}
//
// # Single Instance
//
// LibreOffice tolerates one instance per process because its internal
// state is process-wide, so construction is guarded by an atomic
// gate: New fails with an instance-lock error while another
// Office is live and succeeds again once it is fully closed. Office
// handles may be cloned; documents keep their office alive, and the
// native instance is destroyed exactly once when the last handle
// closes.
//
// # Callbacks and Passwords
//
// The engine reports events by calling back into the process while an
// engine call is still on the stack. Handlers receive a weak
// CallbackOffice handle: upgrading it fails cleanly after teardown
// instead of touching a destroyed instance. Password-protected
// documents are handled through this channel. Enabling
// FeatureDocumentPassword makes a load block while the handler
// answers the prompt with SetDocumentPassword or
// DeclineDocumentPassword; the engine re-prompts for as long as the
// handler keeps supplying wrong passwords, so a handler that cannot
// know the password must eventually decline.
//
// # Thread Safety
//
// Only instance construction is safe to race: the gate deterministically
// picks one winner. Everything else, including every Office and
// Document method and every handler invocation, must stay on the
// single thread that owns the instance.
package lok
