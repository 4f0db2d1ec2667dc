package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"flag"

	"github.com/limec/limec/internal/common"
	"github.com/limec/limec/internal/driver"
)

func main() {
	config := common.NewBuildConfig()

	flag.Usage = func() {
		fmt.Printf("Usage of %s: [options] file.lm\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.StringVar(&config.Exe, "exe", "a.out", "Name of executable")
	flag.IntVar(&config.OptLevel, "O", 0, "Optimization level (0-3) passed to the downstream toolchain")
	flag.BoolVar(&config.Run, "br", false, "Build and run the compiled executable")
	flag.BoolVar(&config.Verbose, "verbose", false, "Print compilation info")
	flag.BoolVar(&config.DumpIR, "dump-ir", false, "Print generated IR")
	flag.Parse()

	if len(flag.Args()) != 1 {
		fmt.Printf("%s: expected exactly one input file\n", common.BoldRed(common.ErrorMsg.String()))
		os.Exit(1)
	}

	path := flag.Args()[0]
	if filepath.Ext(path) != ".lm" {
		fmt.Printf("%s: %q does not have a .lm extension\n", common.BoldRed(common.ErrorMsg.String()), path)
		os.Exit(1)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("%s: %v\n", common.BoldRed(common.ErrorMsg.String()), err)
		os.Exit(1)
	}

	if config.OptLevel < 0 || config.OptLevel > 3 {
		fmt.Printf("%s: -O must be between 0 and 3\n", common.BoldRed(common.ErrorMsg.String()))
		os.Exit(1)
	}

	result := driver.Compile(path, src)
	printErrors(result.Errors)

	if !result.Succeeded {
		os.Exit(1)
	}

	if config.DumpIR || config.Verbose {
		fmt.Println(result.IR)
	}

	irPath := strings.TrimSuffix(path, ".lm") + ".ll"
	if err := emit(result.IR, irPath); err != nil {
		fmt.Printf("%s: %v\n", common.BoldRed(common.ErrorMsg.String()), err)
		os.Exit(1)
	}

	if config.Run {
		if err := runExecutable(irPath, config); err != nil {
			fmt.Printf("%s: %v\n", common.BoldRed(common.ErrorMsg.String()), err)
			os.Exit(1)
		}
	}
}

func printErrors(errors *common.ErrorList) {
	for _, warn := range errors.Warnings {
		fmt.Printf("%s\n", warn)
	}
	for _, err := range errors.Errors {
		fmt.Printf("%s\n", err)
	}
}

// emit is the Emitter collaborator: it writes ir to path verbatim, the
// way the teacher's own backend hands finished IR text to disk before
// handing off to the system linker.
func emit(ir, path string) error {
	return os.WriteFile(path, []byte(ir), 0o644)
}

// runExecutable is the Runner collaborator. It shells out to the
// system toolchain to turn irPath into config.Exe and then runs it,
// mirroring the teacher's own exec.Command-based link step.
func runExecutable(irPath string, config *common.BuildConfig) error {
	build := exec.Command("clang", fmt.Sprintf("-O%d", config.OptLevel), irPath, "-o", config.Exe)
	if out, err := build.CombinedOutput(); err != nil {
		return fmt.Errorf("%v: %s", err, out)
	}

	run := exec.Command("./" + config.Exe)
	run.Stdin, run.Stdout, run.Stderr = os.Stdin, os.Stdout, os.Stderr
	return run.Run()
}
