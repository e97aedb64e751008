package messy

func f()  {} // want `File is incorrectly formatted starting at line 3`
