// dwicorrect fixes the diffusion data that the converter cannot represent
// correctly: integrated series holding both phase-encoding directions are
// split apart, reverse-encoded reference volumes become fieldmap epi files,
// and the companion bval, bvec, and JSON files are rewritten to match. Each
// study wave used a different acquisition, so the wave selects the recipe.
package main

import (
	"flag"
	"log"

	"github.com/carbocation/bidskit"
)

func main() {
	var bidsDir, subjectsFile, gradDir string
	var wave int

	flag.StringVar(&bidsDir, "bids", "", "Path to the BIDS directory.")
	flag.StringVar(&subjectsFile, "subjects", "", "Path to file listing one subject ID per line.")
	flag.StringVar(&gradDir, "graddir", "", "Path to reference gradient tables (<subject>_*_bvals.txt / _bvecs.txt). Required for -wave 3, whose scanner-reported multi-shell values are wrong.")
	flag.IntVar(&wave, "wave", 0, "Study wave (1, 2, or 3); selects the correction recipe.")
	flag.Parse()

	if bidsDir == "" {
		log.Fatalln("Please provide -bids")
	}
	if subjectsFile == "" {
		log.Fatalln("Please provide -subjects")
	}

	var process func(bidsDir, subject string) error
	switch wave {
	case 1:
		process = processWave1
	case 2:
		process = processWave2
	case 3:
		if gradDir == "" {
			log.Fatalln("Please provide -graddir for -wave 3")
		}
		gradDir = bidskit.ExpandHome(gradDir)
		process = func(bidsDir, subject string) error {
			return processWave3(bidsDir, subject, gradDir)
		}
	default:
		log.Fatalln("Please provide -wave 1, 2, or 3")
	}

	bidsDir = bidskit.ExpandHome(bidsDir)

	subjects, err := bidskit.ReadSubjectList(bidskit.ExpandHome(subjectsFile))
	if err != nil {
		log.Fatalln(err)
	}

	for _, subject := range subjects {
		log.Println("Processing subject", subject)

		if err := process(bidsDir, subject); err != nil {
			log.Println("Error processing subject", subject, ":", err)
			continue
		}

		log.Println("Finished processing subject", subject)
	}
}
