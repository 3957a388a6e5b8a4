package i18n

func polishSet() TranslationSet {
	return TranslationSet{
		InvalidRegistryFile:    "nieprawidłowy plik rejestru",
		OutputConflict:         "dwie komendy zadeklarowały to samo wyjście",
		CyclicDependency:       "wykryto cykl zależności",
		MissingFunction:        "nie znaleziono funkcji",
		RejectedUnserializable: "wartości nie udało się zserializować do rejestru",
		UnexpectedFuture:       "użyto wartości future przed jej rozwiązaniem",
		CommandFailed:          "komenda zakończyła się błędem",
		MissingOutput:          "zadeklarowane wyjście nie zostało utworzone",
		ModuleLookupFailed:     "nie udało się wczytać modułu wtyczki",

		PendingStatus:  "oczekujące",
		RunningStatus:  "uruchomione",
		DoneStatus:     "gotowe",
		FailedStatus:   "niepowodzenie",
		BuildSucceeded: "budowanie zakończone sukcesem",
		BuildFailed:    "budowanie nie powiodło się",
		DryRunNotice:   "przebieg próbny, żadna komenda nie została wykonana",
	}
}
