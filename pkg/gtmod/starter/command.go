package starter

import (
	"strings"
	"time"
)

// Command names understood by starter.exe.
const (
	CmdUnflat  = "unflat"
	CmdMkFlat  = "mkflat"
	CmdATF2DDS = "atf2dds"
	CmdDDS2ATF = "dds2atf"
	CmdWav2AAF = "wav2aaf"
	CmdPD2CfgP = "pd2cfgp"
)

// Command is a typed request for one starter.exe invocation. Params are
// paths relative to the game root; the vendor tool resolves them against its
// working directory. Commands are serialized to the comma-joined wire format
// only at the invocation boundary.
type Command struct {
	Name   string
	Params []string

	// Timeout overrides the invoker's default when non-zero.
	Timeout time.Duration
}

// wire returns the single composite argument passed to starter.exe,
// e.g. "mkflat,out.flatdata,list.!flatlist". Empty params stay as empty
// fields so positional meaning is preserved.
func (c Command) wire() string {
	if len(c.Params) == 0 {
		return c.Name
	}
	return c.Name + "," + strings.Join(c.Params, ",")
}

// Unflat unpacks the archive at archivePath into destDir. Both paths are
// relative to the game root. The invoker reports destDir back as the result
// output path; unflat is the only command whose result carries structured
// data.
func Unflat(archivePath, destDir string) Command {
	return Command{Name: CmdUnflat, Params: []string{archivePath, destDir}}
}

// MkFlat builds the flatdata archive at outputPath from the flatlist at
// listPath.
func MkFlat(outputPath, listPath string) Command {
	return Command{Name: CmdMkFlat, Params: []string{outputPath, listPath}}
}

// ATF2DDS converts a .texture file to .dds.
func ATF2DDS(srcPath, destPath string) Command {
	return Command{Name: CmdATF2DDS, Params: []string{srcPath, destPath}}
}

// DDS2ATF converts a .dds file to .texture.
func DDS2ATF(srcPath, destPath string) Command {
	return Command{Name: CmdDDS2ATF, Params: []string{srcPath, destPath}}
}

// Wav2AAF converts a .wav file to the game sound format.
func Wav2AAF(srcPath, destPath string) Command {
	return Command{Name: CmdWav2AAF, Params: []string{srcPath, destPath}}
}

// PD2CfgP compiles a text .engcfg2 file into its binary form.
func PD2CfgP(srcPath, destPath string) Command {
	return Command{Name: CmdPD2CfgP, Params: []string{srcPath, destPath}}
}
