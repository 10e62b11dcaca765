// compileinfoprint is imported for the side effect of printing build
// provenance to os.Stderr at startup
package compileinfoprint

import "github.com/medtherm/thermdicom/compileinfo"

func init() {
	compileinfo.PrintToStdErr()
}
